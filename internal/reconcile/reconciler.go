package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/graph"
	"github.com/danmuck/converge/internal/observability"
	"github.com/danmuck/converge/internal/status"
	"github.com/rs/zerolog/log"
)

var ErrPublish = errors.New("reconcile: publish status failed")

// Publisher receives the aggregate status at the end of every completed pass.
type Publisher interface {
	Publish(ctx context.Context, st status.Status) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, st status.Status) error

func (f PublisherFunc) Publish(ctx context.Context, st status.Status) error {
	return f(ctx, st)
}

// Pass records the outcome of one Run.
type Pass struct {
	Event     string        `json:"event"`
	Executed  []string      `json:"executed"`
	Pending   []string      `json:"pending"`
	Status    status.Status `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Stalled reports whether the pass ended with unexecuted items remaining.
func (p Pass) Stalled() bool {
	return len(p.Pending) > 0
}

// Reconciler drives one graph toward its target state.
type Reconciler struct {
	graph     *graph.Graph
	publisher Publisher
}

// New returns a reconciler over g. A nil graph is replaced with an empty one and a
// nil publisher discards the status.
func New(g *graph.Graph, p Publisher) *Reconciler {
	if g == nil {
		g = graph.New()
	}
	if p == nil {
		p = PublisherFunc(func(context.Context, status.Status) error { return nil })
	}
	return &Reconciler{graph: g, publisher: p}
}

func (r *Reconciler) Graph() *graph.Graph {
	return r.graph
}

// Run executes every item that is or becomes ready, in dependency order, then
// publishes the aggregate status. A Configure error aborts the pass unpublished.
func (r *Reconciler) Run(ctx context.Context, event component.Event) (Pass, error) {
	pass := Pass{Event: event.Name, StartedAt: time.Now()}
	log.Info().Str("event", event.Name).Msg("reconcile.Run start")

	seq := r.graph.ExecutionSequence()
	for item := range seq.All() {
		log.Info().Str("event", event.Name).Str("item", item.Name()).Msg("reconcile.Run configure")
		observability.RecordExecution(item.Name())
		if err := item.Component().Configure(ctx, event); err != nil {
			pass.Duration = time.Since(pass.StartedAt)
			observability.RecordPass(observability.PassOutcomeFault, pass.Duration)
			log.Error().Err(err).Str("event", event.Name).Str("item", item.Name()).Msg("reconcile.Run fault")
			return pass, fmt.Errorf("configure %q: %w", item.Name(), err)
		}
		pass.Executed = append(pass.Executed, item.Name())
	}

	for _, item := range r.graph.Items() {
		if !item.Executed() {
			pass.Pending = append(pass.Pending, item.Name())
		}
	}
	pass.Status = r.graph.Status()
	pass.Duration = time.Since(pass.StartedAt)
	log.Info().
		Str("event", event.Name).
		Int("executed", len(pass.Executed)).
		Strs("pending", pass.Pending).
		Msg("reconcile.Run execution loop complete")

	observability.SetAggregateLevel(pass.Status.Level)
	outcome := observability.PassOutcomeComplete
	if pass.Stalled() {
		outcome = observability.PassOutcomeStalled
	}
	observability.RecordPass(outcome, pass.Duration)

	log.Info().Str("status", pass.Status.String()).Msg("reconcile.Run publish")
	if err := r.publisher.Publish(ctx, pass.Status); err != nil {
		return pass, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return pass, nil
}
