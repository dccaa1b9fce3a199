// Package strings provides string-list helpers for reference data.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved. Comparison is
// case-insensitive so catalog variants like "BRUXELLES" and "Bruxelles"
// collapse to the first spelling seen.
//
//	DedupeAndTrim([]string{" Bruxelles ", "Ixelles", "BRUXELLES", ""})
//	// []string{"Bruxelles", "Ixelles"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// ContainsFold reports whether values holds v, ignoring case and surrounding
// whitespace.
func ContainsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}

// PrependMissing returns values with v in front when v is non-empty and not
// already present. The input slice is never modified.
func PrependMissing(values []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || ContainsFold(values, v) {
		return append([]string(nil), values...)
	}
	out := make([]string, 0, len(values)+1)
	out = append(out, v)
	return append(out, values...)
}
