package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics. Gate-specific counters live
// with the airlock package.
type Metrics struct {
	EntitiesCreated    *prometheus.CounterVec
	SignaturesRecorded prometheus.Counter
}

// New creates and registers all process-level metrics.
func New() *Metrics {
	return &Metrics{
		EntitiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_entities_created_total",
			Help: "Records created in the entity graph, by kind",
		}, []string{"kind"}),
		SignaturesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canopy_signatures_recorded_total",
			Help: "Human signatures recorded on verifications",
		}),
	}
}

// IncrementEntitiesCreated counts one created record of the given kind.
func (m *Metrics) IncrementEntitiesCreated(kind string) {
	if m == nil {
		return
	}
	m.EntitiesCreated.WithLabelValues(kind).Inc()
}

// IncrementSignaturesRecorded counts one recorded signature.
func (m *Metrics) IncrementSignaturesRecorded() {
	if m == nil {
		return
	}
	m.SignaturesRecorded.Inc()
}
