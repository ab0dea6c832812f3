package metrics_test

import (
	"testing"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return float64(m.GetHistogram().GetSampleCount())
		}
	}
	return 0
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var _ quotes.Recorder = m

	m.ApprovalOutcome(quotes.OutcomeApproved)
	m.ApprovalOutcome(quotes.OutcomeConflict)
	m.ApprovalOutcome(quotes.OutcomeApproved)
	m.Transition(quotes.StatusPending, quotes.StatusApproved)
	m.ObserveMatrixBuild(30 * time.Millisecond)
	m.Request("/api/comparison", 200)
	m.Request("/api/comparison", 409)

	if got := counter(t, reg, "quotes_approvals_total", map[string]string{"outcome": "approved"}); got != 2 {
		t.Fatalf("approved = %v", got)
	}
	if got := counter(t, reg, "quotes_approvals_total", map[string]string{"outcome": "conflict"}); got != 1 {
		t.Fatalf("conflict = %v", got)
	}
	if got := counter(t, reg, "quotes_status_transitions_total", map[string]string{"from": "pending", "to": "approved"}); got != 1 {
		t.Fatalf("transitions = %v", got)
	}
	if got := counter(t, reg, "quotes_comparison_build_seconds", nil); got != 1 {
		t.Fatalf("matrix samples = %v", got)
	}
	if got := counter(t, reg, "quotes_http_requests_total", map[string]string{"route": "/api/comparison", "code": "4xx"}); got != 1 {
		t.Fatalf("4xx = %v", got)
	}
}
