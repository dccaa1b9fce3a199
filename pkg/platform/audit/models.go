package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to customer contracts and data that
	// the brokerage must be able to reconstruct later.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to access monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	QuoteID    string
	QuoteType  string
	OperatorID string
	Action     string
	// Decision is the outcome of the action (e.g. "succeeded", "rejected").
	Decision  string
	Reason    string
	RequestID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByQuote(ctx context.Context, quoteID string) ([]Event, error)
}

type AuditEvent string

const (
	EventQuoteOpened        AuditEvent = "quote_opened"
	EventQuoteSaved         AuditEvent = "quote_saved"
	EventQuoteSaveRejected  AuditEvent = "quote_save_rejected"
	EventQuoteSaveFailed    AuditEvent = "quote_save_failed"
	EventQuoteStatusChanged AuditEvent = "quote_status_changed"

	EventAuthFailed AuditEvent = "auth_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventQuoteSaved:         CategoryCompliance,
	EventQuoteStatusChanged: CategoryCompliance,

	EventAuthFailed: CategorySecurity,

	EventQuoteOpened:       CategoryOperations,
	EventQuoteSaveRejected: CategoryOperations,
	EventQuoteSaveFailed:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
