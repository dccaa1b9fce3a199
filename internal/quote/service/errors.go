package service

import (
	"fmt"

	"brokerdesk/internal/quote/editmodel"
)

// Operator-facing notification messages.
const (
	MessageSaved            = "Le devis a été mis à jour."
	MessageTransportFailure = "Le serveur est injoignable. Vos modifications sont conservées, réessayez."
	MessageGenericFailure   = "La mise à jour du devis a échoué."
)

// ValidationRejected aggregates every failing control of a rejected save.
type ValidationRejected struct {
	Report editmodel.Report
}

func (e *ValidationRejected) Error() string {
	return fmt.Sprintf("validation rejected: %d invalid field(s)", len(e.Report.Fields))
}

// TransportError means the backend could not be reached or did not answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PersistenceError is a refusal reported by the backend. Message is empty when
// the backend gave no reason.
type PersistenceError struct {
	Message string
}

func (e *PersistenceError) Error() string {
	if e.Message == "" {
		return "persistence failed"
	}
	return "persistence failed: " + e.Message
}

// UserMessage is the backend reason, or the generic fallback.
func (e *PersistenceError) UserMessage() string {
	if e.Message == "" {
		return MessageGenericFailure
	}
	return e.Message
}
