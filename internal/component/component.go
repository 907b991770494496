package component

import (
	"context"
	"time"

	"github.com/danmuck/converge/internal/status"
)

// Event is the trigger token passed unmodified into every Configure call.
// The engine never inspects it.
type Event struct {
	Name       string
	Payload    map[string]string
	ReceivedAt time.Time
}

// NewEvent stamps a named event with the current time.
func NewEvent(name string) Event {
	return Event{Name: name, ReceivedAt: time.Now()}
}

// Component is one idempotent configuration unit.
type Component interface {
	// Configure performs unit and application level configuration. It must be safe to
	// call repeatedly, including when nothing changed.
	Configure(ctx context.Context, event Event) error
	// Status reports the current health of the represented resource. No side effects.
	Status() status.Status
	// ReadyForExecution gates whether calling Configure is meaningful at all.
	ReadyForExecution() bool
}

// EventSource is implemented by components that want extra trigger events observed.
type EventSource interface {
	Events() []string
}

// Base supplies the default readiness predicate. Embed it and override as needed.
type Base struct{}

func (Base) ReadyForExecution() bool { return true }

// IsActive reports whether c is fully configured and operating.
func IsActive(c Component) bool {
	return c.Status().IsActive()
}

// Events returns the events c wants observed, or nil when it declares none.
func Events(c Component) []string {
	src, ok := c.(EventSource)
	if !ok {
		return nil
	}
	return src.Events()
}
