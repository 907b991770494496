package observability

import (
	"testing"
	"time"

	"github.com/danmuck/converge/internal/status"
	"github.com/danmuck/converge/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("converge", "GET", "/status", 200, 12*time.Millisecond)
	RecordPass(PassOutcomeComplete, 3*time.Millisecond)
	RecordTrigger("config-changed", true)
}

func TestRecordExecutionCountsPerItem(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(itemExecutions.WithLabelValues("metrics-test-item"))
	RecordExecution("metrics-test-item")
	RecordExecution("metrics-test-item")
	after := testutil.ToFloat64(itemExecutions.WithLabelValues("metrics-test-item"))
	if after-before != 2 {
		t.Fatalf("expected 2 executions recorded, got %v", after-before)
	}
}

func TestSetAggregateLevel(t *testing.T) {
	testlog.Start(t)
	SetAggregateLevel(status.LevelBlocked)
	if got := testutil.ToFloat64(aggregateLevel); got != 1 {
		t.Fatalf("expected blocked rank 1, got %v", got)
	}
	SetAggregateLevel(status.LevelActive)
	if got := testutil.ToFloat64(aggregateLevel); got != 4 {
		t.Fatalf("expected active rank 4, got %v", got)
	}
}
