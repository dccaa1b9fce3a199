// Package events carries quote domain events from the orchestrator to side
// effects such as the SMS notifier and the Kafka status publisher.
package events

import (
	"context"
	"time"

	"brokerdesk/internal/quote/models"
	id "brokerdesk/pkg/domain"
)

// StatusChanged is published once a save that moved a quote from one status
// to another has been persisted.
type StatusChanged struct {
	EventID    id.EventID    `json:"event_id"`
	QuoteID    id.QuoteID    `json:"quote_id"`
	QuoteType  id.QuoteType  `json:"quote_type"`
	OldStatus  models.Status `json:"old_status"`
	NewStatus  models.Status `json:"new_status"`
	OccurredAt time.Time     `json:"occurred_at"`
	RequestID  string        `json:"request_id,omitempty"`

	// Quote is the persisted snapshot. Handlers must not mutate it.
	Quote models.Quote `json:"-"`
}

// Handler reacts to one event. Errors are logged by the bus.
type Handler interface {
	HandleStatusChanged(ctx context.Context, e StatusChanged) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e StatusChanged) error

func (f HandlerFunc) HandleStatusChanged(ctx context.Context, e StatusChanged) error {
	return f(ctx, e)
}

// Publisher is the orchestrator's view of the bus.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, e StatusChanged)
}
