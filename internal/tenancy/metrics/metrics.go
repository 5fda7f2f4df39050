package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenancy registry.
type Metrics struct {
	RequestsSubmitted prometheus.Counter
	RequestsDecided   *prometheus.CounterVec
	StaysCreated      prometheus.Counter
	StaysEnded        prometheus.Counter
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_verification_requests_submitted_total",
			Help: "Total verification requests submitted by tenants",
		}),
		RequestsDecided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_verification_requests_decided_total",
			Help: "Total landlord decisions by outcome",
		}, []string{"decision"}),
		StaysCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_stays_created_total",
			Help: "Total tenancies created by approvals",
		}),
		StaysEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_stays_ended_total",
			Help: "Total tenancies ended by move-out",
		}),
	}
}
