package service

import "brokerdesk/internal/quote/editmodel"

// State is a step of one save attempt.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Attempt records one save: the states it went through and its outcome.
type Attempt struct {
	States []State
	// Report is the validation result; empty unless the save was rejected.
	Report editmodel.Report
	// Data is the row the backend returned after a successful update.
	Data []byte
	Err  error
}

func newAttempt() *Attempt {
	return &Attempt{States: []State{StateIdle}}
}

func (a *Attempt) enter(s State) {
	a.States = append(a.States, s)
}

// Final returns the last state reached.
func (a *Attempt) Final() State {
	return a.States[len(a.States)-1]
}

func (a *Attempt) outcome() string {
	return string(a.Final())
}
