// Package editmodel holds the operator-facing editable state of one quote:
// the normalized baseline, the working copy, touched controls, reference
// options, and the validators that gate saving.
//
// A Model is safe for concurrent use. Lookup results arrive from background
// goroutines while the operator edits; both go through the same lock.
package editmodel

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"brokerdesk/internal/quote/models"
	id "brokerdesk/pkg/domain"
	dErrors "brokerdesk/pkg/domain-errors"
)

// ChangeKind classifies a mutation for subscribers.
type ChangeKind int

const (
	ChangeField ChangeKind = iota
	ChangePostalCode
	ChangeMakeText
	ChangeMakeSelected
	ChangeMakeCleared
	ChangeGroupAdded
	ChangeGroupRemoved
	ChangeReset
)

// Change is delivered to subscribers after the lock is released.
type Change struct {
	Group GroupKey
	Kind  ChangeKind
	Value string
}

// Model is the editable form of one quote.
type Model struct {
	mu           sync.Mutex
	baseline     models.Quote
	current      models.Quote
	touched      map[Path]bool
	dirty        bool
	closed       bool
	cityOptions  map[GroupKey][]string
	makeOptions  []Option
	modelOptions []Option
	subs         map[int]func(Change)
	nextSub      int
	now          func() time.Time
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithClock overrides the clock used by the future-date validators.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

// New builds a model whose baseline and working copy are q.
func New(q models.Quote, opts ...ModelOption) *Model {
	m := &Model{
		baseline:    q.Clone(),
		current:     q.Clone(),
		touched:     map[Path]bool{},
		cityOptions: map[GroupKey][]string{},
		subs:        map[int]func(Change){},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Type() id.QuoteType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Type()
}

func (m *Model) ID() id.QuoteID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Head().ID
}

// Quote returns a snapshot of the working copy.
func (m *Model) Quote() models.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Baseline returns a snapshot of the last persisted state.
func (m *Model) Baseline() models.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline.Clone()
}

func (m *Model) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close detaches the model. Later edits and lookup results are ignored.
func (m *Model) Close() {
	m.mu.Lock()
	m.closed = true
	m.subs = map[int]func(Change){}
	m.mu.Unlock()
}

// Subscribe registers fn for every change. The returned func unsubscribes.
func (m *Model) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.nextSub
	m.nextSub++
	m.subs[key] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, key)
		m.mu.Unlock()
	}
}

// mutate runs fn under the lock and notifies subscribers with the changes it
// returns. fn reports whether anything changed.
func (m *Model) mutate(fn func() ([]Change, bool)) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	changes, changed := fn()
	if changed {
		m.dirty = !sameQuote(m.current, m.baseline)
	}
	subs := make([]func(Change), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, c := range changes {
		for _, s := range subs {
			s(c)
		}
	}
	return changed
}

func (m *Model) SetStatus(status models.Status) {
	m.mutate(func() ([]Change, bool) {
		h := m.current.Head()
		if h.Status == status {
			return nil, false
		}
		h.Status = status
		m.touched[PathOf(GroupQuote, "status")] = true
		return []Change{{Group: GroupQuote, Kind: ChangeField, Value: string(status)}}, true
	})
}

// SetInsurerID assigns the insurer. An empty id clears it.
func (m *Model) SetInsurerID(insurer string) {
	m.mutate(func() ([]Change, bool) {
		h := m.current.Head()
		var next *string
		if insurer != "" {
			next = &insurer
		}
		if (h.InsurerID == nil && next == nil) || (h.InsurerID != nil && next != nil && *h.InsurerID == *next) {
			return nil, false
		}
		h.InsurerID = next
		m.touched[PathOf(GroupQuote, "insurerId")] = true
		return []Change{{Group: GroupQuote, Kind: ChangeField, Value: insurer}}, true
	})
}

// Update applies fn to the working copy for fields that have no dedicated
// setter, such as guarantees or the voyage description.
func (m *Model) Update(fn func(models.Quote)) {
	m.mutate(func() ([]Change, bool) {
		fn(m.current)
		return []Change{{Group: GroupQuote, Kind: ChangeField}}, true
	})
}

// SetDriverDiffers toggles the separate-driver group of an auto quote.
func (m *Model) SetDriverDiffers(differs bool) error {
	var err error
	m.mutate(func() ([]Change, bool) {
		q, ok := m.current.(*models.AutoQuote)
		if !ok {
			err = dErrors.New(dErrors.CodeInvalidInput, "only auto quotes have a driver")
			return nil, false
		}
		switch {
		case differs && q.Driver == nil:
			q.Driver = &models.Person{}
			return []Change{{Group: GroupDriver, Kind: ChangeGroupAdded}}, true
		case !differs && q.Driver != nil:
			q.Driver = nil
			m.dropTouched(GroupDriver)
			delete(m.cityOptions, GroupDriver)
			return []Change{{Group: GroupDriver, Kind: ChangeGroupRemoved}}, true
		default:
			return nil, false
		}
	})
	return err
}

// DriverDiffers reports whether the auto quote has a separate driver.
func (m *Model) DriverDiffers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.current.(*models.AutoQuote)
	return ok && q.Driver != nil
}

// AddInsured appends an empty insured person to an obsèques quote.
func (m *Model) AddInsured() (*PersonGroup, error) {
	var (
		key GroupKey
		err error
	)
	m.mutate(func() ([]Change, bool) {
		q, ok := m.current.(*models.ObsequesQuote)
		if !ok {
			err = dErrors.New(dErrors.CodeInvalidInput, "only obseques quotes have insured persons")
			return nil, false
		}
		q.InsuredPersons = append(q.InsuredPersons, models.Person{})
		key = InsuredKey(len(q.InsuredPersons) - 1)
		return []Change{{Group: key, Kind: ChangeGroupAdded}}, true
	})
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, dErrors.New(dErrors.CodeConflict, "model is closed")
	}
	return &PersonGroup{m: m, key: key}, nil
}

// RemoveInsured drops the i-th insured person. Later keys shift down.
func (m *Model) RemoveInsured(i int) error {
	var err error
	m.mutate(func() ([]Change, bool) {
		q, ok := m.current.(*models.ObsequesQuote)
		if !ok {
			err = dErrors.New(dErrors.CodeInvalidInput, "only obseques quotes have insured persons")
			return nil, false
		}
		if i < 0 || i >= len(q.InsuredPersons) {
			err = dErrors.New(dErrors.CodeNotFound, "insured person not found")
			return nil, false
		}
		q.InsuredPersons = append(q.InsuredPersons[:i], q.InsuredPersons[i+1:]...)
		m.reindexInsured(i)
		return []Change{{Group: InsuredKey(i), Kind: ChangeGroupRemoved}}, true
	})
	return err
}

// InsuredCount returns the number of insured persons, zero for other types.
func (m *Model) InsuredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.current.(*models.ObsequesQuote); ok {
		return len(q.InsuredPersons)
	}
	return 0
}

// Reset discards edits and restores the baseline.
func (m *Model) Reset() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.current = m.baseline.Clone()
	m.touched = map[Path]bool{}
	m.cityOptions = map[GroupKey][]string{}
	m.dirty = false
	subs := make([]func(Change), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		s(Change{Kind: ChangeReset})
	}
}

// MarkPersisted promotes the working copy to the new baseline.
func (m *Model) MarkPersisted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline = m.current.Clone()
	m.dirty = false
	m.touched = map[Path]bool{}
}

// MarkPersistedAs makes saved the new baseline. saved is the snapshot that
// was submitted; edits made after it was taken keep the model dirty.
func (m *Model) MarkPersistedAs(saved models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline = saved.Clone()
	if sameQuote(m.current, saved) {
		m.dirty = false
		m.touched = map[Path]bool{}
	}
}

// AdoptPersonIDs copies the ids the backend assigned on save onto baseline
// persons that had none. A working-copy person takes the id only while it
// still matches its baseline counterpart. Persons are matched by position.
func (m *Model) AdoptPersonIDs(saved models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if saved == nil || saved.Type() != m.baseline.Type() || saved.Head().ID != m.baseline.Head().ID {
		return
	}
	assigned := models.PersonsOf(saved)
	base := models.PersonsOf(m.baseline)
	cur := models.PersonsOf(m.current)
	for i, p := range base {
		if i >= len(assigned) || strings.TrimSpace(p.ID) != "" || assigned[i].ID == "" {
			continue
		}
		if i < len(cur) && *cur[i] == *p {
			cur[i].ID = assigned[i].ID
		}
		p.ID = assigned[i].ID
	}
}

// ApplySnapshot replaces baseline and working copy with a freshly fetched
// quote. The snapshot must describe the same quote.
func (m *Model) ApplySnapshot(q models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return dErrors.New(dErrors.CodeConflict, "model is closed")
	}
	if q.Type() != m.current.Type() || q.Head().ID != m.current.Head().ID {
		return dErrors.New(dErrors.CodeInvalidInput, "snapshot belongs to another quote")
	}
	m.baseline = q.Clone()
	m.current = q.Clone()
	m.dirty = false
	m.touched = map[Path]bool{}
	return nil
}

// Replace swaps the working copy for q and keeps the baseline. The model is
// dirty when q differs from the baseline.
func (m *Model) Replace(q models.Quote) error {
	var err error
	m.mu.Lock()
	switch {
	case m.closed:
		err = dErrors.New(dErrors.CodeConflict, "model is closed")
	case q == nil || q.Type() != m.current.Type() || q.Head().ID != m.current.Head().ID:
		err = dErrors.New(dErrors.CodeInvalidInput, "snapshot belongs to another quote")
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = q.Clone()
	m.dirty = !sameQuote(m.current, m.baseline)
	m.cityOptions = map[GroupKey][]string{}
	subs := make([]func(Change), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		s(Change{Kind: ChangeReset})
	}
	return nil
}

// Touched reports whether the control at path was edited or revealed.
func (m *Model) Touched(path Path) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched[path] || m.touched[allTouched]
}

const allTouched Path = "*"

// TouchAll reveals every control, as done when a save is rejected.
func (m *Model) TouchAll() {
	m.mu.Lock()
	m.touched[allTouched] = true
	m.mu.Unlock()
}

// VisibleErrors is the subset of Validate the operator should see.
func (m *Model) VisibleErrors() Report {
	r := m.Validate()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touched[allTouched] {
		return r
	}
	for p := range r.Fields {
		if !m.touched[p] {
			delete(r.Fields, p)
		}
	}
	return r
}

// Validate runs every field and group validator over the working copy.
func (m *Model) Validate() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	r := Report{Fields: map[Path][]ErrorCode{}}
	addPerson := func(key GroupKey, p models.Person) {
		for f, codes := range personErrors(p, now) {
			r.add(key, string(f), codes)
		}
	}
	switch q := m.current.(type) {
	case *models.AutoQuote:
		addPerson(GroupPolicyholder, q.Policyholder)
		if q.Driver != nil {
			addPerson(GroupDriver, *q.Driver)
		}
		for f, codes := range vehicleErrors(q.Vehicle, now) {
			r.add(GroupVehicle, f, codes)
		}
	case *models.HabitationQuote:
		addPerson(GroupPolicyholder, q.Policyholder)
		for f, codes := range buildingErrors(q.Building, now) {
			r.add(GroupBuilding, f, codes)
		}
	case *models.ObsequesQuote:
		addPerson(GroupPolicyholder, q.Policyholder)
		for i, p := range q.InsuredPersons {
			addPerson(InsuredKey(i), p)
		}
	case *models.RcFamilialeQuote:
		addPerson(GroupPolicyholder, q.Policyholder)
		if q.RiskScope.HouseholdSize < 0 {
			r.add(GroupQuote, "householdSize", []ErrorCode{ErrOutOfRange})
		}
		if q.RiskScope.Children < 0 {
			r.add(GroupQuote, "children", []ErrorCode{ErrOutOfRange})
		}
	case *models.VoyageQuote:
	}
	return r
}

// person resolves key to the live person in the working copy, or nil when
// the group does not exist. Caller holds the lock.
func (m *Model) person(key GroupKey) *models.Person {
	switch q := m.current.(type) {
	case *models.AutoQuote:
		switch key {
		case GroupPolicyholder:
			return &q.Policyholder
		case GroupDriver:
			return q.Driver
		}
	case *models.HabitationQuote:
		if key == GroupPolicyholder {
			return &q.Policyholder
		}
	case *models.RcFamilialeQuote:
		if key == GroupPolicyholder {
			return &q.Policyholder
		}
	case *models.ObsequesQuote:
		if key == GroupPolicyholder {
			return &q.Policyholder
		}
		if i, ok := InsuredIndex(key); ok && i >= 0 && i < len(q.InsuredPersons) {
			return &q.InsuredPersons[i]
		}
	}
	return nil
}

func (m *Model) dropTouched(key GroupKey) {
	prefix := string(key) + "."
	for p := range m.touched {
		if strings.HasPrefix(string(p), prefix) {
			delete(m.touched, p)
		}
	}
}

// sameQuote compares two quotes field by field. An empty insured list equals
// an absent one.
func sameQuote(a, b models.Quote) bool {
	return reflect.DeepEqual(withoutEmptyInsured(a), withoutEmptyInsured(b))
}

func withoutEmptyInsured(q models.Quote) models.Quote {
	o, ok := q.(*models.ObsequesQuote)
	if !ok || o.InsuredPersons == nil || len(o.InsuredPersons) > 0 {
		return q
	}
	c := o.Clone().(*models.ObsequesQuote)
	c.InsuredPersons = nil
	return c
}

// reindexInsured moves touched flags and city options of the insured persons
// after removed one slot down. Caller holds the lock.
func (m *Model) reindexInsured(removed int) {
	m.dropTouched(InsuredKey(removed))
	delete(m.cityOptions, InsuredKey(removed))
	q, ok := m.current.(*models.ObsequesQuote)
	if !ok {
		return
	}
	for i := removed + 1; i <= len(q.InsuredPersons); i++ {
		from, to := InsuredKey(i), InsuredKey(i-1)
		prefix := string(from) + "."
		for p, v := range m.touched {
			if strings.HasPrefix(string(p), prefix) {
				delete(m.touched, p)
				m.touched[PathOf(to, strings.TrimPrefix(string(p), prefix))] = v
			}
		}
		if opts, ok := m.cityOptions[from]; ok {
			m.cityOptions[to] = opts
			delete(m.cityOptions, from)
		}
	}
}
