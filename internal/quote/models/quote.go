package models

import (
	id "brokerdesk/pkg/domain"
)

// Status is the backend workflow label. The vocabulary is open-ended: values
// the engine does not know are carried through untouched.
type Status string

const (
	StatusNew               Status = "Nouveau"
	StatusInProgress        Status = "En cours"
	StatusDocumentAvailable Status = "Document disponible"
	StatusDone              Status = "Terminé"
)

// Header holds the fields every variant carries.
type Header struct {
	ID        id.QuoteID `json:"id"`
	Status    Status     `json:"status"`
	InsurerID *string    `json:"insurerId,omitempty"`
}

// Quote is the tagged union over the five quote variants. The set is closed:
// only this package can add implementations.
type Quote interface {
	Type() id.QuoteType
	Head() *Header
	Clone() Quote
	sealed()
}

// Auto quote. Driver is nil when the policyholder drives.
type AutoQuote struct {
	Header
	Policyholder Person         `json:"policyholder"`
	Driver       *Person        `json:"driver,omitempty"`
	Vehicle      Vehicle        `json:"vehicle"`
	Guarantees   AutoGuarantees `json:"guarantees"`
}

type HabitationQuote struct {
	Header
	Policyholder Person               `json:"policyholder"`
	Building     Building             `json:"building"`
	Evaluation   Evaluation           `json:"evaluation"`
	Guarantees   HabitationGuarantees `json:"guarantees"`
}

type ObsequesQuote struct {
	Header
	Policyholder   Person       `json:"policyholder"`
	InsuredPersons []Person     `json:"insuredPersons"`
	Meta           ObsequesMeta `json:"meta"`
}

type VoyageQuote struct {
	Header
	Description string `json:"description"`
}

type RcFamilialeQuote struct {
	Header
	Policyholder Person    `json:"policyholder"`
	RiskScope    RiskScope `json:"riskScope"`
}

func (*AutoQuote) Type() id.QuoteType        { return id.QuoteTypeAuto }
func (*HabitationQuote) Type() id.QuoteType  { return id.QuoteTypeHabitation }
func (*ObsequesQuote) Type() id.QuoteType    { return id.QuoteTypeObseques }
func (*VoyageQuote) Type() id.QuoteType      { return id.QuoteTypeVoyage }
func (*RcFamilialeQuote) Type() id.QuoteType { return id.QuoteTypeRcFamiliale }

func (q *AutoQuote) Head() *Header        { return &q.Header }
func (q *HabitationQuote) Head() *Header  { return &q.Header }
func (q *ObsequesQuote) Head() *Header    { return &q.Header }
func (q *VoyageQuote) Head() *Header      { return &q.Header }
func (q *RcFamilialeQuote) Head() *Header { return &q.Header }

func (*AutoQuote) sealed()        {}
func (*HabitationQuote) sealed()  {}
func (*ObsequesQuote) sealed()    {}
func (*VoyageQuote) sealed()      {}
func (*RcFamilialeQuote) sealed() {}

func (h Header) clone() Header {
	if h.InsurerID != nil {
		v := *h.InsurerID
		h.InsurerID = &v
	}
	return h
}

func (q *AutoQuote) Clone() Quote {
	c := *q
	c.Header = q.Header.clone()
	if q.Driver != nil {
		d := *q.Driver
		c.Driver = &d
	}
	c.Guarantees = q.Guarantees.clone()
	return &c
}

func (q *HabitationQuote) Clone() Quote {
	c := *q
	c.Header = q.Header.clone()
	c.Guarantees = q.Guarantees.clone()
	return &c
}

func (q *ObsequesQuote) Clone() Quote {
	c := *q
	c.Header = q.Header.clone()
	if q.InsuredPersons != nil {
		c.InsuredPersons = make([]Person, len(q.InsuredPersons))
		copy(c.InsuredPersons, q.InsuredPersons)
	}
	c.Meta = q.Meta.clone()
	return &c
}

func (q *VoyageQuote) Clone() Quote {
	c := *q
	c.Header = q.Header.clone()
	return &c
}

func (q *RcFamilialeQuote) Clone() Quote {
	c := *q
	c.Header = q.Header.clone()
	c.RiskScope = q.RiskScope.clone()
	return &c
}

// PolicyholderOf returns the policyholder of q, or nil for variants without
// one (voyage).
func PolicyholderOf(q Quote) *Person {
	switch v := q.(type) {
	case *AutoQuote:
		return &v.Policyholder
	case *HabitationQuote:
		return &v.Policyholder
	case *ObsequesQuote:
		return &v.Policyholder
	case *RcFamilialeQuote:
		return &v.Policyholder
	default:
		return nil
	}
}

// PersonsOf lists the persons of q in a stable order: policyholder, then
// driver, then insured persons.
func PersonsOf(q Quote) []*Person {
	var out []*Person
	if p := PolicyholderOf(q); p != nil {
		out = append(out, p)
	}
	switch v := q.(type) {
	case *AutoQuote:
		if v.Driver != nil {
			out = append(out, v.Driver)
		}
	case *ObsequesQuote:
		for i := range v.InsuredPersons {
			out = append(out, &v.InsuredPersons[i])
		}
	}
	return out
}

// Empty returns a zero quote of type t, ready to be decoded into.
func Empty(t id.QuoteType) (Quote, bool) {
	switch t {
	case id.QuoteTypeAuto:
		return &AutoQuote{}, true
	case id.QuoteTypeHabitation:
		return &HabitationQuote{}, true
	case id.QuoteTypeObseques:
		return &ObsequesQuote{}, true
	case id.QuoteTypeVoyage:
		return &VoyageQuote{}, true
	case id.QuoteTypeRcFamiliale:
		return &RcFamilialeQuote{}, true
	}
	return nil, false
}
