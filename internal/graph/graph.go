package graph

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/status"
	"github.com/rs/zerolog/log"
)

var (
	// ErrDuplicateName is shared with the status prioritiser so one errors.Is check covers both.
	ErrDuplicateName = status.ErrDuplicateName
	ErrForeignItem   = errors.New("graph: dependency is not an item of this graph")
	ErrNilComponent  = errors.New("graph: component is nil")
	ErrInvalidName   = errors.New("graph: invalid item name")
)

// Graph is a named registry of items in insertion order.
type Graph struct {
	items       []*Item
	byName      map[string]int
	prioritiser *status.Prioritiser
}

// New creates an empty graph with its own status prioritiser.
func New() *Graph {
	return &Graph{
		byName:      make(map[string]int),
		prioritiser: status.NewPrioritiser(),
	}
}

// Add registers c under name. Every entry of dependsOn must be a handle previously
// returned by Add on this graph. The item's derived status is registered with the
// prioritiser under the same name.
func (g *Graph) Add(c component.Component, name string, dependsOn ...*Item) (*Item, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilComponent, name)
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	deps := make([]int, 0, len(dependsOn))
	for _, dep := range dependsOn {
		if dep == nil || dep.graph != g || dep.index >= len(g.items) || g.items[dep.index] != dep {
			return nil, fmt.Errorf("%w: %q", ErrForeignItem, name)
		}
		deps = append(deps, dep.index)
	}

	item := &Item{
		name:      name,
		index:     len(g.items),
		graph:     g,
		component: c,
		dependsOn: deps,
	}
	if err := g.prioritiser.Add(name, item.Status); err != nil {
		return nil, err
	}
	g.items = append(g.items, item)
	g.byName[name] = item.index
	log.Debug().Str("item", name).Strs("depends_on", item.DependsOn()).Msg("graph.Add")
	return item, nil
}

// Lookup returns the item registered under name.
func (g *Graph) Lookup(name string) (*Item, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.items[idx], true
}

// Items returns every item in insertion order.
func (g *Graph) Items() []*Item {
	return append([]*Item(nil), g.items...)
}

func (g *Graph) Len() int {
	return len(g.items)
}

// ExecutableItems returns, in insertion order, every item currently ready for execution.
func (g *Graph) ExecutableItems() []*Item {
	var out []*Item
	for _, item := range g.items {
		if item.ReadyForExecution() {
			out = append(out, item)
		}
	}
	return out
}

// Reset clears every executed flag so the next pass reconsiders all items.
func (g *Graph) Reset() {
	for _, item := range g.items {
		item.executed = false
	}
}

// Status aggregates every item's derived status through the prioritiser.
func (g *Graph) Status() status.Status {
	return g.prioritiser.Highest()
}

// Statuses returns every item's derived status, worst first.
func (g *Graph) Statuses() []status.Named {
	return g.prioritiser.All()
}

// EventsToObserve returns the union of events components declared, first occurrence order.
func (g *Graph) EventsToObserve() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range g.items {
		for _, ev := range component.Events(item.component) {
			ev = strings.TrimSpace(ev)
			if ev == "" {
				continue
			}
			if _, ok := seen[ev]; ok {
				continue
			}
			seen[ev] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}

// ItemSummary is a read-only projection of one item.
type ItemSummary struct {
	Name      string        `json:"name"`
	DependsOn []string      `json:"depends_on"`
	Executed  bool          `json:"executed"`
	State     State         `json:"state"`
	Status    status.Status `json:"status"`
}

// Summary returns one projection per item in insertion order.
func (g *Graph) Summary() []ItemSummary {
	out := make([]ItemSummary, 0, len(g.items))
	for _, item := range g.items {
		out = append(out, ItemSummary{
			Name:      item.name,
			DependsOn: item.DependsOn(),
			Executed:  item.executed,
			State:     item.State(),
			Status:    item.Status(),
		})
	}
	return out
}

// Sequence yields executable items one at a time, marking each executed as it is
// produced. Readiness is recomputed on every step because executing one item can
// make its dependents ready. A drained sequence stays drained.
type Sequence struct {
	graph *Graph
	done  bool
}

// ExecutionSequence starts a new lazy execution order over the current graph state.
func (g *Graph) ExecutionSequence() *Sequence {
	return &Sequence{graph: g}
}

// Next returns the first executable item by insertion order, or false once none remain.
func (s *Sequence) Next() (*Item, bool) {
	if s.done {
		return nil, false
	}
	for _, item := range s.graph.items {
		if item.ReadyForExecution() {
			item.executed = true
			return item, true
		}
	}
	s.done = true
	return nil, false
}

// All adapts the sequence for range loops.
func (s *Sequence) All() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		for {
			item, ok := s.Next()
			if !ok || !yield(item) {
				return
			}
		}
	}
}
