package component

import "context"

// PhaseFunc is one slice of configuration work.
type PhaseFunc func(ctx context.Context, event Event) error

// Phased splits Configure into a per-unit phase followed by an application phase
// that differs between the leader and every other unit. Nil phases are skipped.
type Phased struct {
	Unit         PhaseFunc
	AppLeader    PhaseFunc
	AppNonLeader PhaseFunc
	// IsLeader defaults to false when nil.
	IsLeader func() bool
}

// Configure runs the unit phase, then the application phase matching leadership.
func (p Phased) Configure(ctx context.Context, event Event) error {
	if p.Unit != nil {
		if err := p.Unit(ctx, event); err != nil {
			return err
		}
	}
	app := p.AppNonLeader
	if p.IsLeader != nil && p.IsLeader() {
		app = p.AppLeader
	}
	if app == nil {
		return nil
	}
	return app(ctx, event)
}
