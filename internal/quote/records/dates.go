package records

import (
	"strings"
	"time"
)

// DateLayout is the canonical and interchange date representation.
const DateLayout = time.DateOnly

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
}

// NormalizeDate converts a backend date to YYYY-MM-DD. Values that do not
// parse yield "" (absent) instead of an error.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// NormalizeDatePtr is NormalizeDate for nullable columns.
func NormalizeDatePtr(s *string) string {
	if s == nil {
		return ""
	}
	return NormalizeDate(*s)
}

// ParseDate parses any accepted layout and returns the calendar day at UTC
// midnight. Timestamps keep the calendar day they were written with.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
