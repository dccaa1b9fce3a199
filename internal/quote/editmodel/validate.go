package editmodel

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"brokerdesk/internal/identity"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
)

var postalCodePattern = regexp.MustCompile(`^[1-9][0-9]{3}$`)

// personErrors runs the per-field validators followed by the group-level
// registry-number/birth-date consistency check.
func personErrors(p models.Person, now time.Time) map[PersonField][]ErrorCode {
	errs := map[PersonField][]ErrorCode{}
	add := func(f PersonField, c ErrorCode) { errs[f] = append(errs[f], c) }

	if strings.TrimSpace(p.FirstName) == "" {
		add(FieldFirstName, ErrRequired)
	}
	if strings.TrimSpace(p.LastName) == "" {
		add(FieldLastName, ErrRequired)
	}

	birth, birthOK := checkDate(p.BirthDate, FieldBirthDate, now, true, add)
	checkDate(p.IDCardValidUntil, FieldIDCardValidUntil, now, false, add)

	if p.Email != "" {
		if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
			add(FieldEmail, ErrInvalidEmail)
		}
	}
	if p.PostalCode != "" && !postalCodePattern.MatchString(p.PostalCode) {
		add(FieldPostalCode, ErrInvalidPostalCode)
	}

	digits, numberOK := nationalNumberField(p.NationalNumber, add)
	if numberOK && birthOK {
		if code, failed := dateConsistency(digits, birth); failed {
			add(FieldNationalNumber, code)
		}
	}

	for f, codes := range errs {
		if len(codes) == 0 {
			delete(errs, f)
		}
	}
	return errs
}

func checkDate(v string, f PersonField, now time.Time, pastOnly bool, add func(PersonField, ErrorCode)) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(records.DateLayout, v)
	if err != nil {
		add(f, ErrInvalidDate)
		return time.Time{}, false
	}
	if pastOnly && t.After(now) {
		add(f, ErrFutureDate)
		return t, true
	}
	return t, true
}

// nationalNumberField applies format then checksum. It reports ok only when
// the number is present and passes both, which is the precondition for the
// group-level date check.
func nationalNumberField(raw string, add func(PersonField, ErrorCode)) (identity.Digits11, bool) {
	if strings.TrimSpace(raw) == "" {
		return identity.Digits11{}, false
	}
	d, err := identity.ValidateFormat(raw)
	if err != nil {
		add(FieldNationalNumber, ErrInvalidFormat)
		return identity.Digits11{}, false
	}
	if err := identity.ValidateChecksum(d); err != nil {
		add(FieldNationalNumber, ErrInvalidChecksum)
		return identity.Digits11{}, false
	}
	return d, true
}

// dateConsistency is the group validator. It runs only with both fields
// filled, and its error lands on the national number, never on the date.
func dateConsistency(d identity.Digits11, birth time.Time) (ErrorCode, bool) {
	err := identity.ValidateEncodedDate(d, birth)
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, identity.ErrInvalidDate):
		return ErrInvalidDate, true
	default:
		return ErrDateMismatch, true
	}
}

func vehicleErrors(v models.Vehicle, now time.Time) map[string][]ErrorCode {
	errs := map[string][]ErrorCode{}
	if strings.TrimSpace(v.Make) == "" {
		errs["make"] = append(errs["make"], ErrRequired)
	}
	if strings.TrimSpace(v.Model) == "" {
		errs["model"] = append(errs["model"], ErrRequired)
	}
	if v.Year != 0 && (v.Year < 1900 || v.Year > now.Year()+1) {
		errs["year"] = append(errs["year"], ErrOutOfRange)
	}
	if v.FirstRegistration != "" {
		t, err := time.Parse(records.DateLayout, v.FirstRegistration)
		switch {
		case err != nil:
			errs["firstRegistration"] = append(errs["firstRegistration"], ErrInvalidDate)
		case t.After(now):
			errs["firstRegistration"] = append(errs["firstRegistration"], ErrFutureDate)
		}
	}
	if v.PowerKW < 0 {
		errs["powerKw"] = append(errs["powerKw"], ErrOutOfRange)
	}
	return errs
}

func buildingErrors(b models.Building, now time.Time) map[string][]ErrorCode {
	errs := map[string][]ErrorCode{}
	if b.PostalCode != "" && !postalCodePattern.MatchString(b.PostalCode) {
		errs["postalCode"] = append(errs["postalCode"], ErrInvalidPostalCode)
	}
	if b.Rooms < 0 {
		errs["rooms"] = append(errs["rooms"], ErrOutOfRange)
	}
	if b.BuiltYear != 0 && (b.BuiltYear < 1000 || b.BuiltYear > now.Year()+5) {
		errs["builtYear"] = append(errs["builtYear"], ErrOutOfRange)
	}
	return errs
}
