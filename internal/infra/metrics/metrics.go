package metrics

import (
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики утверждений и время сборки матрицы.
type Metrics struct {
	approvals   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	matrix      prometheus.Histogram
	requests    *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. nil — prometheus.DefaultRegisterer (его отдаёт promhttp.Handler).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "approvals_total",
			Help:      "Quotation approval attempts by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "status_transitions_total",
			Help:      "Committed quotation status transitions.",
		}, []string{"from", "to"}),
		matrix: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quotes",
			Name:      "comparison_build_seconds",
			Help:      "Time spent reading and assembling one comparison matrix.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.approvals, m.transitions, m.matrix, m.requests)
	return m
}

func (m *Metrics) ApprovalOutcome(outcome quotes.Outcome) {
	m.approvals.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) Transition(from, to quotes.Status) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) ObserveMatrixBuild(d time.Duration) {
	m.matrix.Observe(d.Seconds())
}

func (m *Metrics) Request(route string, code int) {
	m.requests.WithLabelValues(route, codeLabel(code)).Inc()
}

func codeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
