package domain

import dErrors "brokerdesk/pkg/domain-errors"

// QuoteType identifies one of the quote variants handled by the back office.
// Invariant: the value must be one of the supported types.
//
// Usage: construct via ParseQuoteType at trust boundaries; direct casting
// bypasses validation and is only used for constants.
type QuoteType string

const (
	QuoteTypeAuto        QuoteType = "auto"
	QuoteTypeHabitation  QuoteType = "habitation"
	QuoteTypeObseques    QuoteType = "obseques"
	QuoteTypeVoyage      QuoteType = "voyage"
	QuoteTypeRcFamiliale QuoteType = "rc"
)

var validQuoteTypes = map[QuoteType]bool{
	QuoteTypeAuto:        true,
	QuoteTypeHabitation:  true,
	QuoteTypeObseques:    true,
	QuoteTypeVoyage:      true,
	QuoteTypeRcFamiliale: true,
}

// AllQuoteTypes lists the supported types in display order.
func AllQuoteTypes() []QuoteType {
	return []QuoteType{QuoteTypeAuto, QuoteTypeHabitation, QuoteTypeObseques, QuoteTypeVoyage, QuoteTypeRcFamiliale}
}

// ParseQuoteType constructs a QuoteType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseQuoteType(s string) (QuoteType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "quote type cannot be empty")
	}
	t := QuoteType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported quote type")
	}
	return t, nil
}

func (t QuoteType) IsValid() bool {
	return validQuoteTypes[t]
}

func (t QuoteType) String() string {
	return string(t)
}
