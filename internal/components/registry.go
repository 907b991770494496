package components

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/converge/internal/component"
	"gopkg.in/yaml.v3"
)

var (
	ErrKindExists  = errors.New("components: kind already registered")
	ErrFactoryNil  = errors.New("components: factory is nil")
	ErrUnknownKind = errors.New("components: unknown kind")
	ErrInvalidKind = errors.New("components: invalid kind")
	ErrBadSettings = errors.New("components: invalid settings")
)

// Spec is the kind-independent description of one component to build.
type Spec struct {
	Name     string
	Kind     string
	Events   []string
	Settings map[string]any
}

// Env carries host facts factories may need.
type Env struct {
	IsLeader func() bool
}

// Factory builds one component from a spec.
type Factory func(spec Spec, env Env) (component.Component, error)

// Registry stores factories by kind.
type Registry struct {
	items map[string]Factory
}

// NewRegistry creates an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(KindCommand, buildCommand)
	_ = r.Register(KindFile, buildFile)
	return r
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, factory Factory) error {
	kind = strings.TrimSpace(kind)
	if kind == "" || strings.ContainsAny(kind, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if factory == nil {
		return ErrFactoryNil
	}
	if _, ok := r.items[kind]; ok {
		return fmt.Errorf("%w: %q", ErrKindExists, kind)
	}
	r.items[kind] = factory
	return nil
}

// Build resolves spec.Kind and constructs the component.
func (r *Registry) Build(spec Spec, env Env) (component.Component, error) {
	factory, ok := r.items[strings.TrimSpace(spec.Kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q for %q", ErrUnknownKind, spec.Kind, spec.Name)
	}
	c, err := factory(spec, env)
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", spec.Name, err)
	}
	return c, nil
}

// Kinds returns registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.items))
	for kind := range r.items {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// decodeSettings re-encodes the loosely typed manifest settings into out.
func decodeSettings(settings map[string]any, out any) error {
	if len(settings) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSettings, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSettings, err)
	}
	return nil
}

type sshSettings struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	User           string `yaml:"user"`
	KeyPath        string `yaml:"key_path"`
	KnownHostsPath string `yaml:"known_hosts"`
	Insecure       bool   `yaml:"insecure_skip_host_key_check"`
	Timeout        string `yaml:"timeout"`
}

type commandSettings struct {
	Apply        []string     `yaml:"apply"`
	Check        []string     `yaml:"check"`
	LeaderOnly   bool         `yaml:"leader_only"`
	ProbeTimeout string       `yaml:"probe_timeout"`
	SSH          *sshSettings `yaml:"ssh"`
}

func buildCommand(spec Spec, env Env) (component.Component, error) {
	var s commandSettings
	if err := decodeSettings(spec.Settings, &s); err != nil {
		return nil, err
	}
	probe, err := parseOptionalDuration("probe_timeout", s.ProbeTimeout)
	if err != nil {
		return nil, err
	}
	var runner Runner = LocalRunner{}
	if s.SSH != nil {
		timeout, err := parseOptionalDuration("ssh.timeout", s.SSH.Timeout)
		if err != nil {
			return nil, err
		}
		runner = SSHRunner{
			Host:                        s.SSH.Host,
			Port:                        s.SSH.Port,
			User:                        s.SSH.User,
			KeyPath:                     s.SSH.KeyPath,
			KnownHostsPath:              s.SSH.KnownHostsPath,
			InsecureSkipHostKeyChecking: s.SSH.Insecure,
			Timeout:                     timeout,
		}
	}
	return NewCommandComponent(CommandSpec{
		Apply:        s.Apply,
		Check:        s.Check,
		LeaderOnly:   s.LeaderOnly,
		Events:       spec.Events,
		ProbeTimeout: probe,
	}, runner, env.IsLeader)
}

type fileSettings struct {
	Path       string         `yaml:"path"`
	Format     string         `yaml:"format"`
	Content    string         `yaml:"content"`
	Data       map[string]any `yaml:"data"`
	Mode       string         `yaml:"mode"`
	LeaderOnly bool           `yaml:"leader_only"`
}

func buildFile(spec Spec, env Env) (component.Component, error) {
	var s fileSettings
	if err := decodeSettings(spec.Settings, &s); err != nil {
		return nil, err
	}
	var mode uint64
	if s.Mode != "" {
		if _, err := fmt.Sscanf(s.Mode, "%o", &mode); err != nil {
			return nil, fmt.Errorf("%w: mode %q", ErrBadSettings, s.Mode)
		}
	}
	return NewFileComponent(FileSpec{
		Path:       s.Path,
		Format:     s.Format,
		Content:    s.Content,
		Data:       s.Data,
		Mode:       fs.FileMode(mode),
		Events:     spec.Events,
		LeaderOnly: s.LeaderOnly,
	}, env.IsLeader)
}

func parseOptionalDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadSettings, field, err)
	}
	return d, nil
}
