package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/status"
)

var ErrInvalidExecutedValue = errors.New("graph: executed must be a bool")

const (
	msgWaitingOn        = "waiting on: "
	msgWaitingToExecute = "waiting to execute"
)

// State is the derived lifecycle position of an item within a pass.
type State int

const (
	StateNotReady State = iota
	StateReadyNotExecuted
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateNotReady:
		return "not_ready"
	case StateReadyNotExecuted:
		return "ready"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Item binds one component to its name, dependencies, and executed flag.
type Item struct {
	name      string
	index     int
	graph     *Graph
	component component.Component
	dependsOn []int
	executed  bool
}

func (i *Item) Name() string {
	return i.name
}

func (i *Item) Component() component.Component {
	return i.component
}

// DependsOn returns dependency names in declaration order.
func (i *Item) DependsOn() []string {
	out := make([]string, 0, len(i.dependsOn))
	for _, idx := range i.dependsOn {
		out = append(out, i.graph.items[idx].name)
	}
	return out
}

func (i *Item) Executed() bool {
	return i.executed
}

// SetExecuted sets the executed flag from an untyped value, as received from
// decoded admin requests. Anything but a bool is rejected and the flag is kept.
func (i *Item) SetExecuted(v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: got %T for %q", ErrInvalidExecutedValue, v, i.name)
	}
	i.executed = b
	return nil
}

// InactiveDependencies returns the names of dependencies whose component is not active.
func (i *Item) InactiveDependencies() []string {
	var out []string
	for _, idx := range i.dependsOn {
		dep := i.graph.items[idx]
		if !component.IsActive(dep.component) {
			out = append(out, dep.name)
		}
	}
	return out
}

// ReadyForExecution reports whether the item has not executed, every dependency is
// active, and the component's own precondition holds.
func (i *Item) ReadyForExecution() bool {
	if i.executed {
		return false
	}
	if len(i.InactiveDependencies()) > 0 {
		return false
	}
	return i.component.ReadyForExecution()
}

// State derives the item's lifecycle position. Items whose component precondition
// does not hold yet count as not ready.
func (i *Item) State() State {
	if i.executed {
		return StateExecuted
	}
	if i.ReadyForExecution() {
		return StateReadyNotExecuted
	}
	return StateNotReady
}

// Status blends dependency state with the component's own status:
// blocked dependencies first, then pending execution, then the component verbatim.
func (i *Item) Status() status.Status {
	if inactive := i.InactiveDependencies(); len(inactive) > 0 {
		return status.Maintenance(msgWaitingOn + strings.Join(inactive, ", "))
	}
	if !i.executed {
		return status.Maintenance(msgWaitingToExecute)
	}
	return i.component.Status()
}
