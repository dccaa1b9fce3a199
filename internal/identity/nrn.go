// Package identity validates Belgian national registry numbers.
//
// A registry number has 11 digits: YYMMDD (birth date), a 3-digit serial and
// a 2-digit check. The check is 97 minus the first nine digits modulo 97; for
// people born from 2000 onwards the nine digits are prefixed with a 2 before
// the modulo is taken.
//
// Everything here is pure: no I/O, no clock. Callers skip validation when the
// raw value is empty since the field is optional on every person record.
package identity

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	digitCount  = 11
	checkModulo = 97
	y2kPrefix   = 2_000_000_000
)

// Digits11 is a registry number reduced to exactly eleven ASCII digits.
// The zero value is invalid; construct with ValidateFormat.
type Digits11 struct {
	value string
}

// String returns the eleven digits.
func (d Digits11) String() string { return d.value }

// IsZero reports whether d was never constructed.
func (d Digits11) IsZero() bool { return d.value == "" }

// Format renders the conventional YY.MM.DD-SSS.CC representation.
func (d Digits11) Format() string {
	if d.IsZero() {
		return ""
	}
	v := d.value
	return v[0:2] + "." + v[2:4] + "." + v[4:6] + "-" + v[6:9] + "." + v[9:11]
}

func (d Digits11) base() int64 {
	n, _ := strconv.ParseInt(d.value[:9], 10, 64)
	return n
}

func (d Digits11) check() int64 {
	n, _ := strconv.ParseInt(d.value[9:], 10, 64)
	return n
}

func (d Digits11) encodedDate() (yy, mm, dd int) {
	yy, _ = strconv.Atoi(d.value[0:2])
	mm, _ = strconv.Atoi(d.value[2:4])
	dd, _ = strconv.Atoi(d.value[4:6])
	return yy, mm, dd
}

// ValidateFormat strips every non-digit character (dots, dashes, spaces) and
// requires exactly eleven digits to remain.
func ValidateFormat(raw string) (Digits11, error) {
	var b strings.Builder
	b.Grow(digitCount)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if unicode.IsDigit(r) {
			// Non-ASCII digits are never part of a registry number.
			return Digits11{}, newError(KindInvalidFormat, "unexpected digit %q", r)
		}
	}
	digits := b.String()
	if len(digits) != digitCount {
		return Digits11{}, newError(KindInvalidFormat, "expected %d digits, got %d", digitCount, len(digits))
	}
	return Digits11{value: digits}, nil
}

// ValidateChecksum accepts the number when the check digits match either the
// pre-2000 or the post-2000 computation.
func ValidateChecksum(d Digits11) error {
	if d.IsZero() {
		return newError(KindInvalidFormat, "empty number")
	}
	base := d.base()
	check := d.check()
	if check == checkModulo-(base%checkModulo) {
		return nil
	}
	if check == checkModulo-((y2kPrefix+base)%checkModulo) {
		return nil
	}
	return newError(KindInvalidChecksum, "check digits %02d do not match", check)
}

// ValidateDateConsistency rebuilds the encoded birth date using the century of
// birthDate and compares calendar days. An encoded date that does not exist in
// that century is a mismatch.
func ValidateDateConsistency(d Digits11, birthDate time.Time) error {
	if d.IsZero() {
		return newError(KindInvalidFormat, "empty number")
	}
	century := (birthDate.Year() / 100) * 100
	encoded, ok := EncodedBirthDate(d, century)
	if !ok {
		return newError(KindDateMismatch, "encoded date invalid in century %d", century)
	}
	if !sameDay(encoded, birthDate) {
		return newError(KindDateMismatch, "encoded %s, stated %s",
			encoded.Format(time.DateOnly), birthDate.Format(time.DateOnly))
	}
	return nil
}

// ValidateEncodedDate first requires the encoded YYMMDD to be a real calendar
// date in the 1900s or the 2000s, then applies ValidateDateConsistency.
func ValidateEncodedDate(d Digits11, birthDate time.Time) error {
	if d.IsZero() {
		return newError(KindInvalidFormat, "empty number")
	}
	_, in1900 := EncodedBirthDate(d, 1900)
	_, in2000 := EncodedBirthDate(d, 2000)
	if !in1900 && !in2000 {
		yy, mm, dd := d.encodedDate()
		return newError(KindInvalidDate, "no calendar date for %02d-%02d-%02d", yy, mm, dd)
	}
	return ValidateDateConsistency(d, birthDate)
}

// EncodedBirthDate returns the date encoded in d for the given century
// (1900, 2000, ...). ok is false when that date does not exist, including the
// 00 month/day placeholders used for unknown birth dates.
func EncodedBirthDate(d Digits11, century int) (time.Time, bool) {
	yy, mm, dd := d.encodedDate()
	if mm < 1 || mm > 12 || dd < 1 {
		return time.Time{}, false
	}
	t := time.Date(century+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mm) || t.Day() != dd {
		return time.Time{}, false
	}
	return t, true
}

// Validate runs the full chain on a raw operator value: format, checksum and,
// when birthDate is non-nil, the encoded date checks. Empty input is valid.
func Validate(raw string, birthDate *time.Time) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, err := ValidateFormat(raw)
	if err != nil {
		return err
	}
	if err := ValidateChecksum(d); err != nil {
		return err
	}
	if birthDate == nil {
		return nil
	}
	return ValidateEncodedDate(d, *birthDate)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
