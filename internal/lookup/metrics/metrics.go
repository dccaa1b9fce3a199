package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for reference lookups.
type Metrics struct {
	// Lookups by pipeline and result: ok, error, skipped, deduplicated
	Lookups *prometheus.CounterVec

	// In-flight lookups cancelled by a newer value or session teardown
	Superseded *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_lookup_requests_total",
			Help: "Reference lookups by pipeline and result",
		}, []string{"pipeline", "result"}),

		Superseded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_lookup_superseded_total",
			Help: "In-flight reference lookups cancelled before their result was applied",
		}, []string{"pipeline"}),
	}
}

func (m *Metrics) IncrementLookup(pipeline, result string) {
	if m != nil {
		m.Lookups.WithLabelValues(pipeline, result).Inc()
	}
}

func (m *Metrics) IncrementSuperseded(pipeline string) {
	if m != nil {
		m.Superseded.WithLabelValues(pipeline).Inc()
	}
}
