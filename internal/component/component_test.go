package component

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/converge/internal/status"
	"github.com/danmuck/converge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

type stub struct {
	Base
	st     status.Status
	events []string
}

func (s *stub) Configure(context.Context, Event) error { return nil }
func (s *stub) Status() status.Status                  { return s.st }

type observing struct {
	stub
}

func (o *observing) Events() []string { return o.events }

func TestBaseDefaultsReady(t *testing.T) {
	testlog.Start(t)
	var c Component = &stub{st: status.Waiting("x")}
	if !c.ReadyForExecution() {
		t.Fatalf("expected default readiness true")
	}
	if IsActive(c) {
		t.Fatalf("waiting component must not be active")
	}
	c = &stub{st: status.Active("")}
	if !IsActive(c) {
		t.Fatalf("expected active")
	}
}

func TestEventsOptionalCapability(t *testing.T) {
	testlog.Start(t)
	if got := Events(&stub{}); got != nil {
		t.Fatalf("expected nil events, got %v", got)
	}
	o := &observing{stub: stub{events: []string{"db-ready", "config-changed"}}}
	if diff := cmp.Diff([]string{"db-ready", "config-changed"}, Events(o)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPhasedRunsUnitThenLeaderApp(t *testing.T) {
	testlog.Start(t)
	var calls []string
	record := func(name string) PhaseFunc {
		return func(context.Context, Event) error {
			calls = append(calls, name)
			return nil
		}
	}
	leader := true
	p := Phased{
		Unit:         record("unit"),
		AppLeader:    record("leader"),
		AppNonLeader: record("non-leader"),
		IsLeader:     func() bool { return leader },
	}
	if err := p.Configure(context.Background(), NewEvent("install")); err != nil {
		t.Fatalf("configure: %v", err)
	}
	leader = false
	if err := p.Configure(context.Background(), NewEvent("install")); err != nil {
		t.Fatalf("configure: %v", err)
	}
	want := []string{"unit", "leader", "unit", "non-leader"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("phase order mismatch (-want +got):\n%s", diff)
	}
}

func TestPhasedStopsOnUnitError(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("boom")
	appRan := false
	p := Phased{
		Unit:         func(context.Context, Event) error { return boom },
		AppNonLeader: func(context.Context, Event) error { appRan = true; return nil },
	}
	if err := p.Configure(context.Background(), Event{}); !errors.Is(err, boom) {
		t.Fatalf("expected unit error, got %v", err)
	}
	if appRan {
		t.Fatalf("app phase must not run after unit failure")
	}
	if err := (Phased{}).Configure(context.Background(), Event{}); err != nil {
		t.Fatalf("empty phased should be a no-op: %v", err)
	}
}
