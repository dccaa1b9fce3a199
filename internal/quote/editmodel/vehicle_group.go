package editmodel

import (
	"strings"

	"brokerdesk/internal/quote/models"
)

// VehicleGroup edits the vehicle of an auto quote. The make control doubles
// as a search box: typing clears the resolved make id, selecting an option
// sets it.
type VehicleGroup struct {
	m *Model
}

func (m *Model) Vehicle() (*VehicleGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.current.(*models.AutoQuote); !ok {
		return nil, false
	}
	return &VehicleGroup{m: m}, true
}

func (g *VehicleGroup) vehicle() *models.Vehicle {
	if q, ok := g.m.current.(*models.AutoQuote); ok {
		return &q.Vehicle
	}
	return nil
}

func (g *VehicleGroup) Vehicle() models.Vehicle {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if v := g.vehicle(); v != nil {
		return *v
	}
	return models.Vehicle{}
}

// TypeMake records operator input in the make search box. The resolved make
// id and the model options it produced are dropped.
func (g *VehicleGroup) TypeMake(text string) {
	g.m.mutate(func() ([]Change, bool) {
		v := g.vehicle()
		if v == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupVehicle, "make")] = true
		if v.Make == text && v.MakeID == "" {
			return nil, false
		}
		if v.MakeID != "" {
			g.m.modelOptions = nil
		}
		v.Make = text
		v.MakeID = ""
		return []Change{{Group: GroupVehicle, Kind: ChangeMakeText, Value: text}}, true
	})
}

// SelectMake resolves the make to a catalogue entry. A different make
// invalidates the chosen model and its options.
func (g *VehicleGroup) SelectMake(opt Option) {
	g.m.mutate(func() ([]Change, bool) {
		v := g.vehicle()
		if v == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupVehicle, "make")] = true
		if v.MakeID == opt.ID && v.Make == opt.Label {
			return nil, false
		}
		if v.MakeID != opt.ID {
			v.Model = ""
			g.m.modelOptions = nil
		}
		v.MakeID = opt.ID
		v.Make = opt.Label
		return []Change{{Group: GroupVehicle, Kind: ChangeMakeSelected, Value: opt.ID}}, true
	})
}

// ClearMake empties make, model and the model options.
func (g *VehicleGroup) ClearMake() {
	g.m.mutate(func() ([]Change, bool) {
		v := g.vehicle()
		if v == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupVehicle, "make")] = true
		changed := v.Make != "" || v.MakeID != "" || v.Model != ""
		v.Make, v.MakeID, v.Model = "", "", ""
		g.m.modelOptions = nil
		return []Change{{Group: GroupVehicle, Kind: ChangeMakeCleared}}, changed
	})
}

func (g *VehicleGroup) SetModel(model string) {
	g.setText("model", model, func(v *models.Vehicle) *string { return &v.Model })
}

func (g *VehicleGroup) SetLicensePlate(plate string) {
	g.setText("licensePlate", strings.ToUpper(plate), func(v *models.Vehicle) *string { return &v.LicensePlate })
}

func (g *VehicleGroup) SetFirstRegistration(date string) {
	g.setText("firstRegistration", date, func(v *models.Vehicle) *string { return &v.FirstRegistration })
}

func (g *VehicleGroup) SetYear(year int) {
	g.setInt("year", year, func(v *models.Vehicle) *int { return &v.Year })
}

func (g *VehicleGroup) SetPowerKW(kw int) {
	g.setInt("powerKw", kw, func(v *models.Vehicle) *int { return &v.PowerKW })
}

func (g *VehicleGroup) setText(field, value string, sel func(*models.Vehicle) *string) {
	g.m.mutate(func() ([]Change, bool) {
		v := g.vehicle()
		if v == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupVehicle, field)] = true
		ptr := sel(v)
		if *ptr == value {
			return nil, false
		}
		*ptr = value
		return []Change{{Group: GroupVehicle, Kind: ChangeField, Value: value}}, true
	})
}

func (g *VehicleGroup) setInt(field string, value int, sel func(*models.Vehicle) *int) {
	g.m.mutate(func() ([]Change, bool) {
		v := g.vehicle()
		if v == nil {
			return nil, false
		}
		g.m.touched[PathOf(GroupVehicle, field)] = true
		ptr := sel(v)
		if *ptr == value {
			return nil, false
		}
		*ptr = value
		return []Change{{Group: GroupVehicle, Kind: ChangeField}}, true
	})
}

func (g *VehicleGroup) MakeOptions() []Option {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	return append([]Option(nil), g.m.makeOptions...)
}

func (g *VehicleGroup) ModelOptions() []Option {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	return append([]Option(nil), g.m.modelOptions...)
}

// ApplyMakeOptions installs search results for query. Stale queries are
// dropped.
func (g *VehicleGroup) ApplyMakeOptions(query string, opts []Option) bool {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	v := g.vehicle()
	if g.m.closed || v == nil || strings.TrimSpace(v.Make) != strings.TrimSpace(query) {
		return false
	}
	g.m.makeOptions = append([]Option(nil), opts...)
	return true
}

// ApplyModelOptions installs the models of makeID. A response for a make
// that is no longer selected is dropped.
func (g *VehicleGroup) ApplyModelOptions(makeID string, opts []Option) bool {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	v := g.vehicle()
	if g.m.closed || v == nil || v.MakeID != makeID {
		return false
	}
	g.m.modelOptions = append([]Option(nil), opts...)
	return true
}

func (g *VehicleGroup) Errors() map[string][]ErrorCode {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	v := g.vehicle()
	if v == nil {
		return map[string][]ErrorCode{}
	}
	return vehicleErrors(*v, g.m.now())
}
