package models

// Optional coverage flags are pointers: nil means the operator never answered.
// Payload shaping coalesces nil to false.

type AutoGuarantees struct {
	Liability        bool  `json:"liability"`
	Omnium           *bool `json:"omnium,omitempty"`
	MiniOmnium       *bool `json:"miniOmnium,omitempty"`
	Theft            *bool `json:"theft,omitempty"`
	Assistance       *bool `json:"assistance,omitempty"`
	DriverProtection *bool `json:"driverProtection,omitempty"`
	LegalAssistance  *bool `json:"legalAssistance,omitempty"`
}

type HabitationGuarantees struct {
	Fire             bool  `json:"fire"`
	Contents         *bool `json:"contents,omitempty"`
	Theft            *bool `json:"theft,omitempty"`
	NaturalDisasters *bool `json:"naturalDisasters,omitempty"`
	LegalAssistance  *bool `json:"legalAssistance,omitempty"`
}

// ObsequesMeta holds the funeral-plan options.
type ObsequesMeta struct {
	Capital               float64 `json:"capital,omitempty"`
	PaymentFrequency      string  `json:"paymentFrequency,omitempty"`
	PolicyholderIsInsured *bool   `json:"policyholderIsInsured,omitempty"`
}

// Bool reads an optional flag, treating nil as false.
func Bool(b *bool) bool {
	return b != nil && *b
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func (g AutoGuarantees) clone() AutoGuarantees {
	g.Omnium = cloneBool(g.Omnium)
	g.MiniOmnium = cloneBool(g.MiniOmnium)
	g.Theft = cloneBool(g.Theft)
	g.Assistance = cloneBool(g.Assistance)
	g.DriverProtection = cloneBool(g.DriverProtection)
	g.LegalAssistance = cloneBool(g.LegalAssistance)
	return g
}

func (g HabitationGuarantees) clone() HabitationGuarantees {
	g.Contents = cloneBool(g.Contents)
	g.Theft = cloneBool(g.Theft)
	g.NaturalDisasters = cloneBool(g.NaturalDisasters)
	g.LegalAssistance = cloneBool(g.LegalAssistance)
	return g
}

func (m ObsequesMeta) clone() ObsequesMeta {
	m.PolicyholderIsInsured = cloneBool(m.PolicyholderIsInsured)
	return m
}

func (r RiskScope) clone() RiskScope {
	r.Pets = cloneBool(r.Pets)
	return r
}
