package status

import (
	"errors"
	"testing"

	"github.com/danmuck/converge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func fixed(s Status) Query {
	return func() Status { return s }
}

func TestHighestWithoutProvidersIsUnknown(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	if got := p.Highest(); got != Unknown() {
		t.Fatalf("expected unknown, got %v", got)
	}
}

func TestHighestAllActiveIsBare(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	_ = p.Add("db", fixed(Active("")))
	_ = p.Add("web", fixed(Active("")))
	got := p.Highest()
	if got != Active("") {
		t.Fatalf("expected bare active, got %+v", got)
	}
}

func TestHighestActiveWithMessageIsAttributed(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	_ = p.Add("db", fixed(Active("serving 3 replicas")))
	got := p.Highest()
	if got != Active("[db] serving 3 replicas") {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestHighestPicksWorstAndAttributes(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	_ = p.Add("a", fixed(Active("")))
	_ = p.Add("b", fixed(Waiting("for leader")))
	_ = p.Add("c", fixed(Blocked("missing config")))
	_ = p.Add("d", fixed(Maintenance("upgrading")))

	got := p.Highest()
	want := Blocked("[c] missing config")
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestHighestTieResolvesToFirstRegistered(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	_ = p.Add("first", fixed(Error("boom")))
	_ = p.Add("second", fixed(Error("bang")))
	if got := p.Highest(); got != Error("[first] boom") {
		t.Fatalf("unexpected tie break: %+v", got)
	}
}

func TestAllOrdersWorstFirstStable(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	_ = p.Add("u", fixed(Unknown()))
	_ = p.Add("a1", fixed(Active("")))
	_ = p.Add("m", fixed(Maintenance("x")))
	_ = p.Add("a2", fixed(Active("")))
	_ = p.Add("e", fixed(Error("y")))

	var names []string
	for _, n := range p.All() {
		names = append(names, n.Name)
	}
	want := []string{"e", "m", "a1", "a2", "u"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAllEvaluatesAtCallTime(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	current := Waiting("starting")
	_ = p.Add("svc", func() Status { return current })

	if got := p.Highest(); got.Level != LevelWaiting {
		t.Fatalf("expected waiting, got %+v", got)
	}
	current = Active("")
	if got := p.Highest(); got != Active("") {
		t.Fatalf("expected fresh evaluation, got %+v", got)
	}
}

func TestAddRejectsDuplicateAndKeepsOriginal(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	if err := p.Add("db", fixed(Blocked("original"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.Add("db", fixed(Active(""))); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected one provider, got %d", p.Len())
	}
	if got := p.Highest(); got != Blocked("[db] original") {
		t.Fatalf("original registration replaced: %+v", got)
	}
}

func TestAddRejectsNilAndBlank(t *testing.T) {
	testlog.Start(t)
	p := NewPrioritiser()
	if err := p.Add("x", nil); !errors.Is(err, ErrNilQuery) {
		t.Fatalf("expected ErrNilQuery, got %v", err)
	}
	if err := p.Add("  ", fixed(Active(""))); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestLevelRoundTripAndRank(t *testing.T) {
	testlog.Start(t)
	order := []Level{LevelError, LevelBlocked, LevelWaiting, LevelMaintenance, LevelActive, LevelUnknown}
	for i, lvl := range order {
		if lvl.Rank() != i {
			t.Fatalf("rank(%s)=%d want %d", lvl, lvl.Rank(), i)
		}
		parsed, ok := ParseLevel(lvl.String())
		if !ok || parsed != lvl {
			t.Fatalf("parse %q -> %v,%v", lvl.String(), parsed, ok)
		}
	}
	if Level(42).Rank() <= LevelUnknown.Rank() {
		t.Fatalf("out-of-range levels must sort last")
	}
	if _, ok := ParseLevel("fine"); ok {
		t.Fatalf("expected unknown name rejected")
	}
}
