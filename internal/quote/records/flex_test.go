package records

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexDecoding(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexInt    `json:"d"`
		E FlexInt    `json:"e"`
		F FlexFloat  `json:"f"`
		G FlexInt    `json:"g"`
	}
	raw := `{"a":1000,"b":" 1050 ","c":null,"d":"7","e":"","f":"12 500,50","g":"n/a"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	assert.Equal(t, FlexString("1000"), v.A)
	assert.Equal(t, FlexString("1050"), v.B)
	assert.Equal(t, FlexString(""), v.C)
	assert.Equal(t, FlexInt(7), v.D)
	assert.Equal(t, FlexInt(0), v.E)
	assert.InDelta(t, 12500.50, float64(v.F), 0.001)
	assert.Equal(t, FlexInt(0), v.G)
}

func TestRcRecord_IDShadowsPersonID(t *testing.T) {
	var rc RcRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"devis-1","prenom":"Lea","nom":"Maes","composition_menage":3}`), &rc))
	assert.Equal(t, "devis-1", rc.ID)
	assert.Equal(t, FlexString(""), rc.PersonRecord.ID)
	assert.Equal(t, "Lea", rc.Prenom)
	assert.Equal(t, FlexInt(3), rc.CompositionMenage)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"1985-07-14":                "1985-07-14",
		"1985-07-14T00:00:00Z":      "1985-07-14",
		"1985-07-14T00:00:00+02:00": "1985-07-14",
		"1985-07-14 10:30:00":       "1985-07-14",
		"14/07/1985":                "1985-07-14",
		"14.07.1985":                "1985-07-14",
		"":                          "",
		"not a date":                "",
		"1985-13-01":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDate(in), in)
	}
	assert.Equal(t, "", NormalizeDatePtr(nil))
}
