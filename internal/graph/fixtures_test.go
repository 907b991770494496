package graph

import (
	"context"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/status"
)

// fakeComponent becomes active once configured unless stuck is set.
type fakeComponent struct {
	completed  bool
	stuck      bool
	notReady   bool
	configured int
	events     []string
}

func (f *fakeComponent) Configure(context.Context, component.Event) error {
	f.configured++
	f.completed = true
	return nil
}

func (f *fakeComponent) Status() status.Status {
	if !f.completed || f.stuck {
		return status.Waiting("waiting for execution")
	}
	return status.Active("")
}

func (f *fakeComponent) ReadyForExecution() bool {
	return !f.notReady
}

func (f *fakeComponent) Events() []string {
	return f.events
}

func activeComponent() *fakeComponent {
	return &fakeComponent{completed: true}
}

// drain runs the execution sequence, configuring each yielded item, and returns yielded names.
func drain(g *Graph) []string {
	var names []string
	seq := g.ExecutionSequence()
	for item := range seq.All() {
		_ = item.Component().Configure(context.Background(), component.NewEvent("test"))
		names = append(names, item.Name())
	}
	return names
}
