package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/converge/internal/status"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	PassOutcomeComplete = "complete"
	PassOutcomeStalled  = "stalled"
	PassOutcomeFault    = "fault"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "converge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	reconcilePasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converge",
			Subsystem: "reconcile",
			Name:      "passes_total",
			Help:      "Reconcile passes by outcome.",
		},
		[]string{"outcome"},
	)
	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "converge",
			Subsystem: "reconcile",
			Name:      "pass_duration_seconds",
			Help:      "Reconcile pass duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	itemExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converge",
			Subsystem: "reconcile",
			Name:      "item_executions_total",
			Help:      "Configure calls per graph item.",
		},
		[]string{"item"},
	)
	aggregateLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "converge",
			Subsystem: "reconcile",
			Name:      "aggregate_level",
			Help:      "Last published aggregate status level (0=error .. 4=active, 5=unknown).",
		},
	)
	triggerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "converge",
			Subsystem: "agent",
			Name:      "trigger_events_total",
			Help:      "Trigger events received by the agent.",
		},
		[]string{"event", "accepted"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			reconcilePasses,
			reconcileDuration,
			itemExecutions,
			aggregateLevel,
			triggerEvents,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPass(outcome string, duration time.Duration) {
	RegisterMetrics()
	reconcilePasses.WithLabelValues(outcome).Inc()
	reconcileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordExecution(item string) {
	RegisterMetrics()
	itemExecutions.WithLabelValues(item).Inc()
}

func SetAggregateLevel(level status.Level) {
	RegisterMetrics()
	aggregateLevel.Set(float64(level.Rank()))
}

func RecordTrigger(event string, accepted bool) {
	RegisterMetrics()
	triggerEvents.WithLabelValues(event, strconv.FormatBool(accepted)).Inc()
}
