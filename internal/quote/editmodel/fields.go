package editmodel

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorCode is a field-level validation failure shown inline to operators.
type ErrorCode string

const (
	ErrRequired          ErrorCode = "required"
	ErrInvalidFormat     ErrorCode = "invalidFormat"
	ErrInvalidChecksum   ErrorCode = "invalidChecksum"
	ErrDateMismatch      ErrorCode = "dateMismatch"
	ErrInvalidDate       ErrorCode = "invalidDate"
	ErrFutureDate        ErrorCode = "futureDate"
	ErrInvalidEmail      ErrorCode = "invalidEmail"
	ErrInvalidPostalCode ErrorCode = "invalidPostalCode"
	ErrOutOfRange        ErrorCode = "outOfRange"
)

// GroupKey names a sub-group of the model: "policyholder", "driver",
// "vehicle", "building" or "insured[i]".
type GroupKey string

const (
	GroupPolicyholder GroupKey = "policyholder"
	GroupDriver       GroupKey = "driver"
	GroupVehicle      GroupKey = "vehicle"
	GroupBuilding     GroupKey = "building"
	GroupQuote        GroupKey = "quote"
)

// InsuredKey returns the key of the i-th insured person. Keys are positional:
// RemoveInsured shifts every later key down by one.
func InsuredKey(i int) GroupKey {
	return GroupKey(fmt.Sprintf("insured[%d]", i))
}

// InsuredIndex returns i for a key built by InsuredKey(i).
func InsuredIndex(k GroupKey) (int, bool) {
	var i int
	if !strings.HasPrefix(string(k), "insured[") {
		return 0, false
	}
	if _, err := fmt.Sscanf(string(k), "insured[%d]", &i); err != nil {
		return 0, false
	}
	return i, true
}

// PersonField enumerates the editable controls of a person group.
type PersonField string

const (
	FieldFirstName        PersonField = "firstName"
	FieldLastName         PersonField = "lastName"
	FieldBirthDate        PersonField = "birthDate"
	FieldNationalNumber   PersonField = "nationalNumber"
	FieldIDCardNumber     PersonField = "idCardNumber"
	FieldIDCardValidUntil PersonField = "idCardValidUntil"
	FieldStreet           PersonField = "street"
	FieldPostalCode       PersonField = "postalCode"
	FieldCity             PersonField = "city"
	FieldPhone            PersonField = "phone"
	FieldEmail            PersonField = "email"
	FieldNationality      PersonField = "nationality"
	FieldMaritalStatusID  PersonField = "maritalStatusId"
	FieldRelationship     PersonField = "relationship"
)

// PersonFields lists every person control in form order.
var PersonFields = []PersonField{
	FieldFirstName, FieldLastName, FieldBirthDate, FieldNationalNumber,
	FieldIDCardNumber, FieldIDCardValidUntil, FieldStreet, FieldPostalCode,
	FieldCity, FieldPhone, FieldEmail, FieldNationality, FieldMaritalStatusID,
	FieldRelationship,
}

// Path is the dotted address of one control, e.g. "driver.nationalNumber".
type Path string

func PathOf(group GroupKey, field string) Path {
	return Path(string(group) + "." + field)
}

// Report is the outcome of a full validation pass.
type Report struct {
	Fields map[Path][]ErrorCode
}

func (r Report) Valid() bool {
	return len(r.Fields) == 0
}

// Paths returns the failing paths in stable order.
func (r Report) Paths() []Path {
	out := make([]Path, 0, len(r.Fields))
	for p := range r.Fields {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether path failed with code.
func (r Report) Has(path Path, code ErrorCode) bool {
	for _, c := range r.Fields[path] {
		if c == code {
			return true
		}
	}
	return false
}

func (r Report) add(group GroupKey, field string, codes []ErrorCode) {
	if len(codes) == 0 {
		return
	}
	r.Fields[PathOf(group, field)] = append(r.Fields[PathOf(group, field)], codes...)
}

// Option is a reference-data choice offered to the operator.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
