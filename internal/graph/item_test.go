package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/converge/internal/status"
	"github.com/danmuck/converge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func mustAdd(t *testing.T, g *Graph, c *fakeComponent, name string, deps ...*Item) *Item {
	t.Helper()
	item, err := g.Add(c, name, deps...)
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return item
}

func TestExecutedDefaultsFalseAndAcceptsBool(t *testing.T) {
	testlog.Start(t)
	g := New()
	item := mustAdd(t, g, &fakeComponent{}, "component")
	if item.Executed() {
		t.Fatalf("expected executed=false by default")
	}
	if err := item.SetExecuted(true); err != nil {
		t.Fatalf("set executed: %v", err)
	}
	if !item.Executed() {
		t.Fatalf("expected executed=true")
	}
}

func TestSetExecutedRejectsNonBool(t *testing.T) {
	testlog.Start(t)
	g := New()
	item := mustAdd(t, g, &fakeComponent{}, "component")
	_ = item.SetExecuted(true)

	for _, v := range []any{"something else", 1, nil, "true"} {
		if err := item.SetExecuted(v); !errors.Is(err, ErrInvalidExecutedValue) {
			t.Fatalf("expected ErrInvalidExecutedValue for %#v, got %v", v, err)
		}
		if !item.Executed() {
			t.Fatalf("flag changed after rejected value %#v", v)
		}
	}
}

func TestReadyForExecution(t *testing.T) {
	testlog.Start(t)

	t.Run("no deps not executed", func(t *testing.T) {
		item := mustAdd(t, New(), &fakeComponent{}, "c")
		if !item.ReadyForExecution() {
			t.Fatalf("expected ready")
		}
	})
	t.Run("no deps executed", func(t *testing.T) {
		item := mustAdd(t, New(), &fakeComponent{}, "c")
		_ = item.SetExecuted(true)
		if item.ReadyForExecution() {
			t.Fatalf("executed item must not be ready")
		}
	})
	t.Run("deps not active", func(t *testing.T) {
		g := New()
		dep := mustAdd(t, g, &fakeComponent{}, "dep")
		item := mustAdd(t, g, &fakeComponent{}, "c", dep)
		if item.ReadyForExecution() {
			t.Fatalf("expected not ready while dependency inactive")
		}
	})
	t.Run("deps active", func(t *testing.T) {
		g := New()
		dep := mustAdd(t, g, activeComponent(), "dep")
		_ = dep.SetExecuted(true)
		item := mustAdd(t, g, &fakeComponent{}, "c", dep)
		if !item.ReadyForExecution() {
			t.Fatalf("expected ready once dependency active")
		}
	})
	t.Run("component precondition", func(t *testing.T) {
		item := mustAdd(t, New(), &fakeComponent{notReady: true}, "c")
		if item.ReadyForExecution() {
			t.Fatalf("component precondition must gate readiness")
		}
		if item.State() != StateNotReady {
			t.Fatalf("unexpected state %v", item.State())
		}
	})
}

func TestExecutedItemNeverRegainsReadiness(t *testing.T) {
	testlog.Start(t)
	g := New()
	c := &fakeComponent{}
	item := mustAdd(t, g, c, "c")
	_ = item.SetExecuted(true)
	for _, mutate := range []func(){
		func() { c.completed = true },
		func() { c.stuck = true },
		func() { c.completed = false; c.stuck = false },
	} {
		mutate()
		if item.ReadyForExecution() {
			t.Fatalf("executed item regained readiness")
		}
		if item.State() != StateExecuted {
			t.Fatalf("unexpected state %v", item.State())
		}
	}
}

func TestInactiveDependencies(t *testing.T) {
	testlog.Start(t)
	g := New()
	active := mustAdd(t, g, activeComponent(), "active")
	idle1 := mustAdd(t, g, &fakeComponent{}, "idle1")
	idle2 := mustAdd(t, g, &fakeComponent{}, "idle2")
	none := mustAdd(t, g, &fakeComponent{}, "none")
	mixed := mustAdd(t, g, &fakeComponent{}, "mixed", active, idle1, idle2)

	if got := none.InactiveDependencies(); len(got) != 0 {
		t.Fatalf("expected no inactive deps, got %v", got)
	}
	if diff := cmp.Diff([]string{"idle1", "idle2"}, mixed.InactiveDependencies()); diff != "" {
		t.Fatalf("inactive deps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"active", "idle1", "idle2"}, mixed.DependsOn()); diff != "" {
		t.Fatalf("depends_on mismatch (-want +got):\n%s", diff)
	}
}

func TestItemStatus(t *testing.T) {
	testlog.Start(t)

	t.Run("prerequisites inactive", func(t *testing.T) {
		g := New()
		a := mustAdd(t, g, &fakeComponent{}, "a")
		b := mustAdd(t, g, &fakeComponent{}, "b")
		item := mustAdd(t, g, &fakeComponent{}, "c", a, b)
		st := item.Status()
		if st.Level != status.LevelMaintenance {
			t.Fatalf("expected maintenance, got %v", st)
		}
		if st.Message != "waiting on: a, b" {
			t.Fatalf("unexpected message %q", st.Message)
		}
	})
	t.Run("prerequisites active not executed", func(t *testing.T) {
		g := New()
		dep := mustAdd(t, g, activeComponent(), "dep")
		item := mustAdd(t, g, &fakeComponent{}, "c", dep)
		st := item.Status()
		if st.Level != status.LevelMaintenance || strings.Contains(st.Message, "waiting on") {
			t.Fatalf("unexpected status %v", st)
		}
	})
	t.Run("executed component waiting", func(t *testing.T) {
		g := New()
		dep := mustAdd(t, g, activeComponent(), "dep")
		item := mustAdd(t, g, &fakeComponent{}, "c", dep)
		_ = item.SetExecuted(true)
		if st := item.Status(); st != status.Waiting("waiting for execution") {
			t.Fatalf("expected component status verbatim, got %v", st)
		}
	})
	t.Run("executed component active", func(t *testing.T) {
		g := New()
		c := &fakeComponent{}
		item := mustAdd(t, g, c, "c")
		_ = item.SetExecuted(true)
		c.completed = true
		if st := item.Status(); st != status.Active("") {
			t.Fatalf("expected active, got %v", st)
		}
	})
}
