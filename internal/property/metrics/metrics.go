package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the occupancy counter.
type Metrics struct {
	OccupancyAdjusted  *prometheus.CounterVec
	OccupancySaturated *prometheus.CounterVec
}

// New creates a new Metrics instance with all occupancy metrics registered.
func New() *Metrics {
	return &Metrics{
		OccupancyAdjusted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_occupancy_adjustments_total",
			Help: "Total occupancy counter adjustments by direction",
		}, []string{"direction"}),
		OccupancySaturated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_occupancy_saturations_total",
			Help: "Adjustments clamped at the capacity bounds; nonzero values indicate drift between stays and counters",
		}, []string{"direction"}),
	}
}

// ObserveAdjust records an adjustment and whether the clamp fired.
func (m *Metrics) ObserveAdjust(direction string, saturated bool) {
	m.OccupancyAdjusted.WithLabelValues(direction).Inc()
	if saturated {
		m.OccupancySaturated.WithLabelValues(direction).Inc()
	}
}
