package agent

import (
	"fmt"

	"github.com/danmuck/converge/internal/components"
	"github.com/danmuck/converge/internal/config"
	"github.com/danmuck/converge/internal/graph"
	"github.com/rs/zerolog/log"
)

// BuildGraph validates m and adds one item per entry, in manifest order.
func BuildGraph(m config.Manifest, reg *components.Registry, env components.Env) (*graph.Graph, error) {
	if reg == nil {
		reg = components.DefaultRegistry()
	}
	m = config.NormalizeManifest(m)
	if err := config.ValidateManifest(m); err != nil {
		return nil, err
	}
	g := graph.New()
	for i, entry := range m.Components {
		c, err := reg.Build(components.Spec{
			Name:     entry.Name,
			Kind:     entry.Kind,
			Events:   entry.Events,
			Settings: entry.Settings,
		}, env)
		if err != nil {
			return nil, fmt.Errorf("components[%d] %q: %w", i, entry.Name, err)
		}
		deps := make([]*graph.Item, 0, len(entry.DependsOn))
		for _, name := range entry.DependsOn {
			dep, ok := g.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("components[%d] %q: %w: %q", i, entry.Name, config.ErrUnknownDependency, name)
			}
			deps = append(deps, dep)
		}
		if _, err := g.Add(c, entry.Name, deps...); err != nil {
			return nil, fmt.Errorf("components[%d]: %w", i, err)
		}
		log.Debug().Str("item", entry.Name).Str("kind", entry.Kind).Strs("depends_on", entry.DependsOn).Msg("agent.BuildGraph add")
	}
	return g, nil
}

// Load reads the manifest named by cfg and builds an agent over it.
func Load(cfg config.AgentConfig, reg *components.Registry, publisher Publisher) (*Agent, error) {
	m, err := config.LoadManifest(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	leader := cfg.Leader
	g, err := BuildGraph(m, reg, components.Env{IsLeader: func() bool { return leader }})
	if err != nil {
		return nil, err
	}
	return New(cfg, g, publisher), nil
}
