package airlock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gate decisions and lazy expiries.
type Metrics struct {
	ReleaseChecks *prometheus.CounterVec
	LazyExpiries  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ReleaseChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_release_checks_total",
			Help: "Release gate decisions by scope and outcome",
		}, []string{"scope", "outcome"}),
		LazyExpiries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canopy_stamp_lazy_expiries_total",
			Help: "Stamped verifications flipped to expired during gate checks",
		}),
	}
}

func (m *Metrics) observeCheck(scope string, authorized bool) {
	if m == nil {
		return
	}
	outcome := "blocked"
	if authorized {
		outcome = "authorized"
	}
	m.ReleaseChecks.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) observeExpiry() {
	if m == nil {
		return
	}
	m.LazyExpiries.Inc()
}
