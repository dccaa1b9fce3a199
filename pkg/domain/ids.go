package domain

import (
	"github.com/google/uuid"

	dErrors "brokerdesk/pkg/domain-errors"
)

// Typed identifiers keep quote, operator and event ids from being mixed up at
// call sites. Construct them with the Parse functions at trust boundaries.
type (
	QuoteID    uuid.UUID
	OperatorID uuid.UUID
	EventID    uuid.UUID
)

func NewQuoteID() QuoteID { return QuoteID(uuid.New()) }
func NewEventID() EventID { return EventID(uuid.New()) }

func (id QuoteID) String() string    { return uuid.UUID(id).String() }
func (id OperatorID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

func (id QuoteID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OperatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseQuoteID parses a non-nil UUID quote identifier.
func ParseQuoteID(s string) (QuoteID, error) {
	u, err := parseUUID(s, "quote id")
	return QuoteID(u), err
}

// ParseOperatorID parses a non-nil UUID operator identifier.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s, "operator id")
	return OperatorID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id QuoteID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id OperatorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *QuoteID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid quote id")
	}
	*id = QuoteID(u)
	return nil
}

func (id *OperatorID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid operator id")
	}
	*id = OperatorID(u)
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid event id")
	}
	*id = EventID(u)
	return nil
}
