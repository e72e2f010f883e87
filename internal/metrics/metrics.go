// Package metrics exposes prometheus instrumentation for domain operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeNotFound   = "not_found"
	OutcomeForbidden  = "forbidden"
	OutcomeError      = "error"
)

// Metrics tracks domain operations by outcome and their latency.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	PublishFailures   prometheus.Counter
}

// New registers the domain metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_registry_operations_total",
			Help: "Total number of domain operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domain_registry_operation_duration_seconds",
			Help:    "Duration of domain operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "domain_registry_event_publish_failures_total",
			Help: "Total number of change notifications that could not be delivered",
		}),
	}
}

// Observe records one operation. Call with time.Now() taken at the start.
// A nil Metrics records nothing.
func (m *Metrics) Observe(operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncrementPublishFailures records a failed change notification.
func (m *Metrics) IncrementPublishFailures() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}
