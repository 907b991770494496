package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateName = errors.New("status: duplicate name")
	ErrNilQuery      = errors.New("status: nil query")
	ErrInvalidName   = errors.New("status: invalid name")
)

// Query produces a status on demand. It must not have side effects.
type Query func() Status

// Named pairs a registered name with the status its query returned.
type Named struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Prioritiser tracks the most severe status among several named queries.
type Prioritiser struct {
	order   []string
	queries map[string]Query
}

// NewPrioritiser creates an empty prioritiser.
func NewPrioritiser() *Prioritiser {
	return &Prioritiser{queries: make(map[string]Query)}
}

// Add registers a query under a unique name.
func (p *Prioritiser) Add(name string, query Query) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if query == nil {
		return fmt.Errorf("%w: %q", ErrNilQuery, name)
	}
	if _, ok := p.queries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	p.order = append(p.order, name)
	p.queries[name] = query
	return nil
}

// Len returns the number of registered queries.
func (p *Prioritiser) Len() int {
	return len(p.order)
}

// All evaluates every query now and returns the results worst first.
// Entries of equal severity keep registration order.
func (p *Prioritiser) All() []Named {
	out := make([]Named, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, Named{Name: name, Status: p.queries[name]()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status.Level.Rank() < out[j].Status.Level.Rank()
	})
	return out
}

// Highest returns the worst status, attributed to the query that produced it.
// A bare active status is returned unattributed.
func (p *Prioritiser) Highest() Status {
	all := p.All()
	if len(all) == 0 {
		return Unknown()
	}
	worst := all[0]
	if worst.Status.IsActive() && worst.Status.Message == "" {
		return Active("")
	}
	return New(worst.Status.Level, fmt.Sprintf("[%s] %s", worst.Name, worst.Status.Message))
}
