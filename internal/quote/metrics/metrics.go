package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for quote edit sessions.
type Metrics struct {
	// Save attempts by quote type and final state
	SaveAttempts *prometheus.CounterVec

	// Duration of the persistence call, by quote type
	SaveLatency *prometheus.HistogramVec

	// Quotes opened for editing, by quote type and result
	Opens *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SaveAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_quote_save_attempts_total",
			Help: "Quote save attempts by type and outcome",
		}, []string{"type", "outcome"}), // outcome: "succeeded", "rejected", "failed"

		SaveLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brokerdesk_quote_save_duration_seconds",
			Help:    "Duration of the atomic update call by quote type",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"type"}),

		Opens: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_quote_opens_total",
			Help: "Quotes opened for editing by type and result",
		}, []string{"type", "result"}),
	}
}

func (m *Metrics) IncrementSave(quoteType, outcome string) {
	if m != nil {
		m.SaveAttempts.WithLabelValues(quoteType, outcome).Inc()
	}
}

func (m *Metrics) ObserveSaveLatency(quoteType string, d time.Duration) {
	if m != nil {
		m.SaveLatency.WithLabelValues(quoteType).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOpen(quoteType, result string) {
	if m != nil {
		m.Opens.WithLabelValues(quoteType, result).Inc()
	}
}
