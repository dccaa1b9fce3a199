package records

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

var null = []byte("null")

// FlexString decodes a JSON string, number or null. Backend views are not
// consistent about quoting ids and postal codes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt decodes a JSON number, numeric string, empty string or null.
// Unparseable strings decode to zero rather than failing the whole record.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(string(s)); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if fl, err := strconv.ParseFloat(string(s), 64); err == nil {
		*f = FlexInt(int(fl))
		return nil
	}
	*f = 0
	return nil
}

// FlexFloat decodes a JSON number or a numeric string using either a dot or
// a comma as decimal separator.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v := strings.ReplaceAll(strings.ReplaceAll(string(s), " ", ""), ",", ".")
	if v == "" {
		*f = 0
		return nil
	}
	fl, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(fl)
	return nil
}
