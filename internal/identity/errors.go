package identity

import "fmt"

// Kind classifies an identity validation failure. The values double as the
// field error codes surfaced to operators.
type Kind string

const (
	KindInvalidFormat   Kind = "invalidFormat"
	KindInvalidChecksum Kind = "invalidChecksum"
	KindDateMismatch    Kind = "dateMismatch"
	KindInvalidDate     Kind = "invalidDate"
)

// Error is returned by every validator in this package. Compare with
// errors.Is against the exported sentinels; only the Kind is compared.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("national number: %s", e.Kind)
	}
	return fmt.Sprintf("national number: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat}
	ErrInvalidChecksum = &Error{Kind: KindInvalidChecksum}
	ErrDateMismatch    = &Error{Kind: KindDateMismatch}
	ErrInvalidDate     = &Error{Kind: KindInvalidDate}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
