package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestApprovalMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewApprovalMetrics(reg)

	m.IncDecision("approve")
	m.IncDecision("approve")
	m.IncDecision("reject")
	m.IncImmutabilityViolation()

	if got := testutil.ToFloat64(m.decisions.WithLabelValues("approve")); got != 2 {
		t.Fatalf("expected 2 approve decisions, got %v", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues("reject")); got != 1 {
		t.Fatalf("expected 1 reject decision, got %v", got)
	}
	if got := testutil.ToFloat64(m.violations); got != 1 {
		t.Fatalf("expected 1 violation, got %v", got)
	}
}

func TestApprovalMetricsNilSafe(t *testing.T) {
	var m *ApprovalMetrics
	m.IncDecision("approve")
	m.IncImmutabilityViolation()

	empty := NewApprovalMetrics(nil)
	empty.IncDecision("")
	empty.IncImmutabilityViolation()
}
