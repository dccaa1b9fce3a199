//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseQuoteID checks that parsing never panics and that accepted ids
// round-trip through String.
func FuzzParseQuoteID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseQuoteID(input)
		if err == nil {
			roundTrip, err2 := ParseQuoteID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseQuoteType checks that only the supported vocabulary is accepted.
func FuzzParseQuoteType(f *testing.F) {
	f.Add("auto")
	f.Add("")
	f.Add("AUTO")

	f.Fuzz(func(t *testing.T, input string) {
		qt, err := ParseQuoteType(input)
		if err == nil && !qt.IsValid() {
			t.Errorf("accepted unsupported quote type %q", input)
		}
	})
}
