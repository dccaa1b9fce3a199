package editmodel

import (
	"brokerdesk/internal/quote/models"
	strs "brokerdesk/pkg/platform/strings"
)

// BuildingField enumerates the text controls of the habitation building.
type BuildingField string

const (
	BuildingStreet     BuildingField = "street"
	BuildingPostalCode BuildingField = "postalCode"
	BuildingCity       BuildingField = "city"
	BuildingKind       BuildingField = "kind"
	BuildingOccupancy  BuildingField = "occupancy"
)

type BuildingGroup struct {
	m *Model
}

func (m *Model) Building() (*BuildingGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.current.(*models.HabitationQuote); !ok {
		return nil, false
	}
	return &BuildingGroup{m: m}, true
}

func (g *BuildingGroup) building() *models.Building {
	if q, ok := g.m.current.(*models.HabitationQuote); ok {
		return &q.Building
	}
	return nil
}

func (g *BuildingGroup) Key() GroupKey { return GroupBuilding }

func (g *BuildingGroup) Building() models.Building {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if b := g.building(); b != nil {
		return *b
	}
	return models.Building{}
}

// Set writes a text control. Like persons, a new postal code resets the city.
func (g *BuildingGroup) Set(f BuildingField, value string) bool {
	return g.m.mutate(func() ([]Change, bool) {
		b := g.building()
		if b == nil {
			return nil, false
		}
		var ptr *string
		switch f {
		case BuildingStreet:
			ptr = &b.Street
		case BuildingPostalCode:
			ptr = &b.PostalCode
		case BuildingCity:
			ptr = &b.City
		case BuildingKind:
			ptr = &b.Kind
		case BuildingOccupancy:
			ptr = &b.Occupancy
		default:
			return nil, false
		}
		g.m.touched[PathOf(GroupBuilding, string(f))] = true
		if *ptr == value {
			return nil, false
		}
		*ptr = value
		if f == BuildingPostalCode {
			b.City = ""
			delete(g.m.cityOptions, GroupBuilding)
			return []Change{{Group: GroupBuilding, Kind: ChangePostalCode, Value: value}}, true
		}
		return []Change{{Group: GroupBuilding, Kind: ChangeField, Value: value}}, true
	})
}

func (g *BuildingGroup) SetRooms(n int) {
	g.setInt("rooms", n, func(b *models.Building) *int { return &b.Rooms })
}

func (g *BuildingGroup) SetBuiltYear(year int) {
	g.setInt("builtYear", year, func(b *models.Building) *int { return &b.BuiltYear })
}

func (g *BuildingGroup) setInt(field string, value int, sel func(*models.Building) *int) {
	g.m.mutate(func() ([]Change, bool) {
		b := g.building()
		if b == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupBuilding, field)] = true
		ptr := sel(b)
		if *ptr == value {
			return nil, false
		}
		*ptr = value
		return []Change{{Group: GroupBuilding, Kind: ChangeField}}, true
	})
}

func (g *BuildingGroup) PostalCode() string { return g.Building().PostalCode }
func (g *BuildingGroup) City() string       { return g.Building().City }

func (g *BuildingGroup) CityOptions() []string {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	return append([]string(nil), g.m.cityOptions[GroupBuilding]...)
}

func (g *BuildingGroup) ApplyCities(postalCode string, cities []string) bool {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	b := g.building()
	if g.m.closed || b == nil || b.PostalCode != postalCode {
		return false
	}
	g.m.cityOptions[GroupBuilding] = strs.PrependMissing(cities, b.City)
	return true
}

func (g *BuildingGroup) Errors() map[string][]ErrorCode {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	b := g.building()
	if b == nil {
		return map[string][]ErrorCode{}
	}
	return buildingErrors(*b, g.m.now())
}
