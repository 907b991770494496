package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/config"
	"github.com/danmuck/converge/internal/graph"
	"github.com/danmuck/converge/internal/observability"
	"github.com/danmuck/converge/internal/reconcile"
	"github.com/danmuck/converge/internal/status"
	"github.com/rs/zerolog/log"
)

var (
	ErrQueueFull    = errors.New("agent: trigger queue full")
	ErrUnknownItem  = errors.New("agent: unknown item")
	ErrInvalidEvent = errors.New("agent: invalid event name")
)

// Events every agent observes regardless of what its components declare.
const (
	EventInstall       = "install"
	EventConfigChanged = "config-changed"
	EventUpdateStatus  = "update-status"
)

var standardEvents = []string{EventInstall, EventConfigChanged, EventUpdateStatus}

// Publisher receives the aggregate status after every completed pass.
type Publisher = reconcile.Publisher

type PublisherFunc = reconcile.PublisherFunc

// Record is one entry of the pass history.
type Record struct {
	reconcile.Pass
	Reset bool   `json:"reset"`
	Error string `json:"error,omitempty"`
}

// Agent owns one graph and serializes every pass over it.
type Agent struct {
	cfg        config.AgentConfig
	reconciler *reconcile.Reconciler
	downstream Publisher
	resetOn    map[string]struct{}
	queue      chan component.Event
	started    time.Time

	// mu serializes passes and guards all graph access.
	mu sync.Mutex

	stateMu   sync.RWMutex
	published status.Status
	hasPassed bool
	history   []Record
}

// New wraps g. A nil publisher only logs.
func New(cfg config.AgentConfig, g *graph.Graph, publisher Publisher) *Agent {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = config.DefaultAgentConfig().QueueSize
	}
	a := &Agent{
		cfg:        cfg,
		downstream: publisher,
		resetOn:    make(map[string]struct{}, len(cfg.ResetOn)),
		queue:      make(chan component.Event, cfg.QueueSize),
		started:    time.Now(),
		published:  status.Unknown(),
	}
	for _, name := range cfg.ResetOn {
		a.resetOn[name] = struct{}{}
	}
	a.reconciler = reconcile.New(g, reconcile.PublisherFunc(a.publish))
	return a
}

func (a *Agent) ID() string {
	return a.cfg.ID
}

func (a *Agent) Uptime() time.Duration {
	return time.Since(a.started)
}

func (a *Agent) publish(ctx context.Context, st status.Status) error {
	a.stateMu.Lock()
	a.published = st
	a.hasPassed = true
	a.stateMu.Unlock()

	log.Info().Str("agent", a.cfg.ID).Str("status", st.String()).Msg("agent.publish")
	if a.downstream == nil {
		return nil
	}
	return a.downstream.Publish(ctx, st)
}

func validEvent(event component.Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return ErrInvalidEvent
	}
	return nil
}

// Trigger queues an event without blocking.
func (a *Agent) Trigger(event component.Event) error {
	if err := validEvent(event); err != nil {
		return err
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	select {
	case a.queue <- event:
		observability.RecordTrigger(event.Name, true)
		log.Debug().Str("event", event.Name).Msg("agent.Trigger queued")
		return nil
	default:
		observability.RecordTrigger(event.Name, false)
		log.Warn().Str("event", event.Name).Int("queue_size", cap(a.queue)).Msg("agent.Trigger dropped")
		return fmt.Errorf("%w: %s", ErrQueueFull, event.Name)
	}
}

// Start runs an install pass, then drains triggers and ticks update-status until ctx ends.
func (a *Agent) Start(ctx context.Context) error {
	log.Info().Str("agent", a.cfg.ID).Dur("update_status_interval", a.cfg.UpdateStatusInterval).Msg("agent.Start")
	a.runLogged(ctx, component.NewEvent(EventInstall))

	var tick <-chan time.Time
	if a.cfg.UpdateStatusInterval > 0 {
		ticker := time.NewTicker(a.cfg.UpdateStatusInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("agent", a.cfg.ID).Msg("agent.Start stopped")
			return nil
		case event := <-a.queue:
			a.runLogged(ctx, event)
		case <-tick:
			a.runLogged(ctx, component.NewEvent(EventUpdateStatus))
		}
	}
}

func (a *Agent) runLogged(ctx context.Context, event component.Event) {
	if _, err := a.RunNow(ctx, event); err != nil {
		log.Error().Err(err).Str("event", event.Name).Msg("agent pass failed")
	}
}

// TriggerNow runs an externally triggered event inline, counted like a queued trigger.
func (a *Agent) TriggerNow(ctx context.Context, event component.Event) (Record, error) {
	if err := validEvent(event); err != nil {
		return Record{}, err
	}
	observability.RecordTrigger(event.Name, true)
	return a.RunNow(ctx, event)
}

// RunNow runs one pass synchronously. Faulted passes are recorded in history too.
func (a *Agent) RunNow(ctx context.Context, event component.Event) (Record, error) {
	if err := validEvent(event); err != nil {
		return Record{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := Record{}
	if _, ok := a.resetOn[event.Name]; ok {
		a.reconciler.Graph().Reset()
		rec.Reset = true
	}
	pass, err := a.reconciler.Run(ctx, event)
	rec.Pass = pass
	if err != nil {
		rec.Error = err.Error()
	}
	a.record(rec)
	return rec, err
}

func (a *Agent) record(rec Record) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if a.cfg.HistorySize <= 0 {
		return
	}
	a.history = append(a.history, rec)
	if over := len(a.history) - a.cfg.HistorySize; over > 0 {
		a.history = slices.Delete(a.history, 0, over)
	}
}

// Status returns the last published status, or unknown before the first pass.
func (a *Agent) Status() status.Status {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.published
}

// Ready reports whether a pass has published an active status.
func (a *Agent) Ready() bool {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.hasPassed && a.published.IsActive()
}

// History returns up to limit recent records, oldest first. limit <= 0 returns all.
func (a *Agent) History(limit int) []Record {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	start := 0
	if limit > 0 && len(a.history) > limit {
		start = len(a.history) - limit
	}
	return slices.Clone(a.history[start:])
}

// Summary projects every item under the pass lock.
func (a *Agent) Summary() []graph.ItemSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reconciler.Graph().Summary()
}

// Statuses evaluates every item now, worst first.
func (a *Agent) Statuses() []status.Named {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reconciler.Graph().Statuses()
}

// CurrentStatus evaluates the aggregate now rather than returning the last published value.
func (a *Agent) CurrentStatus() status.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reconciler.Graph().Status()
}

// EventsToObserve lists the standard events followed by those the graph declares.
func (a *Agent) EventsToObserve() []string {
	a.mu.Lock()
	declared := a.reconciler.Graph().EventsToObserve()
	a.mu.Unlock()

	out := slices.Clone(standardEvents)
	for _, name := range declared {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// SetExecuted overrides one item's executed flag. v must be a bool.
func (a *Agent) SetExecuted(name string, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	item, ok := a.reconciler.Graph().Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	if err := item.SetExecuted(v); err != nil {
		return err
	}
	log.Info().Str("item", name).Interface("executed", v).Msg("agent.SetExecuted")
	return nil
}
