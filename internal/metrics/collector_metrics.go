package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorMetrics exposes Prometheus metrics for collection attempts.
// Outcomes: "success", "failure" (recorded run failure), "error"
// (bookkeeping itself failed).
type CollectorMetrics struct {
	attemptTotal    *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
}

// NewCollectorMetrics constructs and registers collection metrics on the
// given registry.
func NewCollectorMetrics(registry *prometheus.Registry) (*CollectorMetrics, error) {
	attemptTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "collector",
		Name:      "attempts_total",
		Help:      "Total number of per-user collection attempts by outcome.",
	}, []string{"outcome"})

	attemptDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "collector",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of per-user collection attempts by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	if err := registry.Register(attemptTotal); err != nil {
		return nil, err
	}

	if err := registry.Register(attemptDuration); err != nil {
		return nil, err
	}

	return &CollectorMetrics{
		attemptTotal:    attemptTotal,
		attemptDuration: attemptDuration,
	}, nil
}

// ObserveAttempt records one finished attempt.
func (m *CollectorMetrics) ObserveAttempt(outcome string, duration time.Duration) {
	m.attemptTotal.WithLabelValues(outcome).Inc()
	m.attemptDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
