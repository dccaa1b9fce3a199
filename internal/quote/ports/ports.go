// Package ports declares what the quote orchestrator needs from the outside:
// the backend gateway, the audit sink and the event bus.
package ports

import (
	"context"

	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/payload"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/audit"
)

// QuoteGateway is the backend's fetch-by-id and atomic-update API.
type QuoteGateway interface {
	// FetchQuote returns the raw view row of one quote, or an error wrapping
	// sentinel.ErrNotFound.
	FetchQuote(ctx context.Context, quoteType id.QuoteType, quoteID id.QuoteID) ([]byte, error)

	// UpdateQuote applies p atomically: every entity of the quote is written
	// or none is. A non-nil error means the backend could not be reached or
	// did not answer; a backend refusal is a result with Success false.
	UpdateQuote(ctx context.Context, p payload.UpdatePayload) (*UpdateResult, error)
}

// UpdateResult is the backend's answer to an update call.
type UpdateResult struct {
	Success bool
	// Data is the view row after the update. The backend may omit it.
	Data []byte
	// Error is the backend's message when Success is false.
	Error string
}

// AuditPort records one audit event per save outcome.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// EventPublisher delivers domain events without waiting for their handlers.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, e events.StatusChanged)
}
