package editmodel

import (
	"brokerdesk/internal/quote/models"
	strs "brokerdesk/pkg/platform/strings"
)

// AddressGroup is a group with a postal code driving a city choice. Person
// groups and the habitation building implement it.
type AddressGroup interface {
	Key() GroupKey
	PostalCode() string
	City() string
	CityOptions() []string
	// ApplyCities installs the cities resolved for postalCode. It is a no-op
	// returning false when the model is closed or the postal code has moved on.
	ApplyCities(postalCode string, cities []string) bool
}

// PersonGroup edits one person of the model. A group whose person no longer
// exists (driver toggled off, insured removed) reads empty and ignores writes.
type PersonGroup struct {
	m   *Model
	key GroupKey
}

func (m *Model) Policyholder() *PersonGroup {
	return &PersonGroup{m: m, key: GroupPolicyholder}
}

// Driver returns the separate-driver group when the auto quote has one.
func (m *Model) Driver() (*PersonGroup, bool) {
	return m.PersonGroup(GroupDriver)
}

func (m *Model) Insured(i int) (*PersonGroup, bool) {
	return m.PersonGroup(InsuredKey(i))
}

// PersonGroup resolves any person key.
func (m *Model) PersonGroup(key GroupKey) (*PersonGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.person(key) == nil {
		return nil, false
	}
	return &PersonGroup{m: m, key: key}, true
}

// AddressGroups lists every group whose postal code drives a city lookup.
func (m *Model) AddressGroups() []AddressGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AddressGroup
	for _, key := range m.personKeys() {
		out = append(out, &PersonGroup{m: m, key: key})
	}
	if _, ok := m.current.(*models.HabitationQuote); ok {
		out = append(out, &BuildingGroup{m: m})
	}
	return out
}

// AddressGroup resolves key to its address group.
func (m *Model) AddressGroup(key GroupKey) (AddressGroup, bool) {
	if key == GroupBuilding {
		if b, ok := m.Building(); ok {
			return b, true
		}
		return nil, false
	}
	if p, ok := m.PersonGroup(key); ok {
		return p, true
	}
	return nil, false
}

func (m *Model) personKeys() []GroupKey {
	switch q := m.current.(type) {
	case *models.AutoQuote:
		if q.Driver != nil {
			return []GroupKey{GroupPolicyholder, GroupDriver}
		}
		return []GroupKey{GroupPolicyholder}
	case *models.ObsequesQuote:
		keys := []GroupKey{GroupPolicyholder}
		for i := range q.InsuredPersons {
			keys = append(keys, InsuredKey(i))
		}
		return keys
	case *models.HabitationQuote, *models.RcFamilialeQuote:
		return []GroupKey{GroupPolicyholder}
	}
	return nil
}

func (g *PersonGroup) Key() GroupKey { return g.key }

// Exists reports whether the person is still part of the quote.
func (g *PersonGroup) Exists() bool {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	return g.m.person(g.key) != nil
}

// Person returns a copy of the current values.
func (g *PersonGroup) Person() models.Person {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if p := g.m.person(g.key); p != nil {
		return *p
	}
	return models.Person{}
}

func (g *PersonGroup) Get(f PersonField) string {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	p := g.m.person(g.key)
	if p == nil {
		return ""
	}
	if ptr := personField(p, f); ptr != nil {
		return *ptr
	}
	return ""
}

// Set writes one control and marks it touched. Changing the postal code
// resets the city and its options. It reports whether the value changed.
func (g *PersonGroup) Set(f PersonField, value string) bool {
	return g.m.mutate(func() ([]Change, bool) {
		p := g.m.person(g.key)
		if p == nil {
			return nil, false
		}
		ptr := personField(p, f)
		if ptr == nil {
			return nil, false
		}
		g.m.touched[PathOf(g.key, string(f))] = true
		if *ptr == value {
			return nil, false
		}
		*ptr = value
		if f == FieldPostalCode {
			p.City = ""
			delete(g.m.cityOptions, g.key)
			return []Change{{Group: g.key, Kind: ChangePostalCode, Value: value}}, true
		}
		return []Change{{Group: g.key, Kind: ChangeField, Value: value}}, true
	})
}

func (g *PersonGroup) PostalCode() string { return g.Get(FieldPostalCode) }
func (g *PersonGroup) City() string       { return g.Get(FieldCity) }

func (g *PersonGroup) CityOptions() []string {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	return append([]string(nil), g.m.cityOptions[g.key]...)
}

func (g *PersonGroup) ApplyCities(postalCode string, cities []string) bool {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	p := g.m.person(g.key)
	if g.m.closed || p == nil || p.PostalCode != postalCode {
		return false
	}
	g.m.cityOptions[g.key] = strs.PrependMissing(cities, p.City)
	return true
}

// Errors runs the field validators and the registry-number/birth-date group
// validator for this person.
func (g *PersonGroup) Errors() map[PersonField][]ErrorCode {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	p := g.m.person(g.key)
	if p == nil {
		return map[PersonField][]ErrorCode{}
	}
	return personErrors(*p, g.m.now())
}

func (g *PersonGroup) FieldErrors(f PersonField) []ErrorCode {
	return g.Errors()[f]
}

func (g *PersonGroup) Valid() bool {
	return len(g.Errors()) == 0
}

func personField(p *models.Person, f PersonField) *string {
	switch f {
	case FieldFirstName:
		return &p.FirstName
	case FieldLastName:
		return &p.LastName
	case FieldBirthDate:
		return &p.BirthDate
	case FieldNationalNumber:
		return &p.NationalNumber
	case FieldIDCardNumber:
		return &p.IDCardNumber
	case FieldIDCardValidUntil:
		return &p.IDCardValidUntil
	case FieldStreet:
		return &p.Street
	case FieldPostalCode:
		return &p.PostalCode
	case FieldCity:
		return &p.City
	case FieldPhone:
		return &p.Phone
	case FieldEmail:
		return &p.Email
	case FieldNationality:
		return &p.Nationality
	case FieldMaritalStatusID:
		return &p.MaritalStatusID
	case FieldRelationship:
		return &p.Relationship
	}
	return nil
}
