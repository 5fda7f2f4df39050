package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for orchestrated operations.
type Metrics struct {
	Operations *prometheus.CounterVec
}

// New creates a new Metrics instance with all orchestrator metrics registered.
// The outcome label distinguishes full success, rejection, and the partial
// case where a saga stopped mid-sequence.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_engine_operations_total",
			Help: "Total orchestrated operations by name and outcome",
		}, []string{"operation", "outcome"}),
	}
}

// Observe records one operation outcome.
func (m *Metrics) Observe(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}
