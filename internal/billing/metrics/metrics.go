package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for billing.
type Metrics struct {
	BillsIssued  *prometheus.CounterVec
	BillsSettled *prometheus.CounterVec
	BillsDeleted prometheus.Counter
}

// New creates a new Metrics instance with all billing metrics registered.
func New() *Metrics {
	return &Metrics{
		BillsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_bills_issued_total",
			Help: "Total bills issued by landlords, by bill type",
		}, []string{"type"}),
		BillsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domus_bills_settled_total",
			Help: "Total bills settled by tenants, by bill type",
		}, []string{"type"}),
		BillsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_bills_deleted_total",
			Help: "Total bills withdrawn by landlords before payment",
		}),
	}
}
