package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide side-effect metrics. Per-module metrics live
// next to their module.
type Metrics struct {
	SMSDispatched   *prometheus.CounterVec
	EventsForwarded *prometheus.CounterVec
}

// New creates and registers the metrics. Call it once per process.
func New() *Metrics {
	return &Metrics{
		SMSDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_sms_dispatch_total",
			Help: "Document-available SMS dispatches by outcome (sent, failed, skipped)",
		}, []string{"outcome"}),
		EventsForwarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerdesk_quote_events_forwarded_total",
			Help: "Quote status events forwarded to external sinks by sink and result",
		}, []string{"sink", "result"}),
	}
}

func (m *Metrics) IncrementSMS(outcome string) {
	if m == nil {
		return
	}
	m.SMSDispatched.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementEventForwarded(sink, result string) {
	if m == nil {
		return
	}
	m.EventsForwarded.WithLabelValues(sink, result).Inc()
}
