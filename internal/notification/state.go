// Package notification holds the single transient banner shown to an operator
// after a save. At most one notification is visible; a new one replaces it and
// restarts the auto-dismiss timer.
package notification

import (
	"sync"
	"time"
)

// DefaultDismissAfter is how long a notification stays visible.
const DefaultDismissAfter = 5 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Timer is the subset of *time.Timer the state needs.
type Timer interface {
	Stop() bool
}

// Clock schedules the auto-dismiss callback.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is Hidden while current is nil and Shown otherwise.
type State struct {
	mu           sync.Mutex
	clock        Clock
	dismissAfter time.Duration
	current      *Notification
	timer        Timer
	generation   uint64
	observers    []func(*Notification)
}

type Option func(*State)

func WithClock(c Clock) Option {
	return func(s *State) { s.clock = c }
}

func WithDismissAfter(d time.Duration) Option {
	return func(s *State) {
		if d > 0 {
			s.dismissAfter = d
		}
	}
}

func New(opts ...Option) *State {
	s := &State{clock: realClock{}, dismissAfter: DefaultDismissAfter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to observe every transition. fn receives nil when the
// state becomes Hidden.
func (s *State) OnChange(fn func(*Notification)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *State) Success(message string) { s.Show(Notification{Kind: KindSuccess, Message: message}) }
func (s *State) Error(message string)   { s.Show(Notification{Kind: KindError, Message: message}) }

// Show replaces any visible notification and restarts the timer.
func (s *State) Show(n Notification) {
	s.mu.Lock()
	s.stopTimerLocked()
	s.generation++
	gen := s.generation
	shown := n
	s.current = &shown
	s.timer = s.clock.AfterFunc(s.dismissAfter, func() { s.expire(gen) })
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, &shown)
}

// Dismiss hides the notification immediately.
func (s *State) Dismiss() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.generation++
	s.current = nil
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, nil)
}

// Close cancels any pending timer without notifying observers.
func (s *State) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.generation++
	s.mu.Unlock()
}

// Current returns the visible notification.
func (s *State) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

func (s *State) Visible() bool {
	_, ok := s.Current()
	return ok
}

// expire fires from the timer. A timer belonging to a replaced notification
// is ignored.
func (s *State) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, nil)
}

func (s *State) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *State) snapshotObservers() []func(*Notification) {
	return append(([]func(*Notification))(nil), s.observers...)
}

func notify(observers []func(*Notification), n *Notification) {
	for _, fn := range observers {
		fn(n)
	}
}
