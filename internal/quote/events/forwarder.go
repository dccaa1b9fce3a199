package events

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// RecordProducer is the slice of the Kafka producer the forwarder needs.
type RecordProducer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type ForwarderMetrics interface {
	IncrementEventForwarded(sink, result string)
}

// Forwarder publishes status events as JSON to a topic, keyed by quote id so
// a quote's events stay ordered within one partition.
type Forwarder struct {
	producer RecordProducer
	topic    string
	metrics  ForwarderMetrics
}

func NewForwarder(producer RecordProducer, topic string, metrics ForwarderMetrics) *Forwarder {
	return &Forwarder{producer: producer, topic: topic, metrics: metrics}
}

func (f *Forwarder) HandleStatusChanged(ctx context.Context, e StatusChanged) error {
	value, err := json.Marshal(e)
	if err != nil {
		f.count("error")
		return fmt.Errorf("encode status event: %w", err)
	}
	if err := f.producer.Publish(ctx, f.topic, []byte(e.QuoteID.String()), value); err != nil {
		f.count("error")
		return err
	}
	f.count("ok")
	return nil
}

func (f *Forwarder) count(result string) {
	if f.metrics != nil {
		f.metrics.IncrementEventForwarded("kafka", result)
	}
}
