package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ApprovalMetrics records review-workflow outcomes.
type ApprovalMetrics struct {
	decisions  *prometheus.CounterVec
	violations prometheus.Counter
}

// NewApprovalMetrics registers the workflow metrics on the provided registerer.
func NewApprovalMetrics(reg prometheus.Registerer) *ApprovalMetrics {
	if reg == nil {
		return &ApprovalMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Review decisions applied to assets.",
	}, []string{"decision"})
	violations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_immutability_violations_total",
		Help: "Attempts to mutate or remove an audit record.",
	})
	reg.MustRegister(decisions, violations)
	return &ApprovalMetrics{
		decisions:  decisions,
		violations: violations,
	}
}

// IncDecision increments the counter for the named decision.
func (a *ApprovalMetrics) IncDecision(decision string) {
	if a == nil || a.decisions == nil {
		return
	}
	a.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncImmutabilityViolation counts a rejected audit mutation attempt.
func (a *ApprovalMetrics) IncImmutabilityViolation() {
	if a == nil || a.violations == nil {
		return
	}
	a.violations.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
