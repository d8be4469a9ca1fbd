package model

import (
	"fmt"
)

// Status is where a patient is in the clinic pipeline.
type Status string

const (
	StatusNew              Status = "NEW"
	StatusCounselling      Status = "COUNSELLING"
	StatusReady            Status = "READY"
	StatusSurgeryScheduled Status = "SURGERY_SCHEDULED"
	StatusPostOp           Status = "POST_OP"
	StatusClosed           Status = "CLOSED"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusNew,
	StatusCounselling,
	StatusReady,
	StatusSurgeryScheduled,
	StatusPostOp,
	StatusClosed,
}

var statusRank = func() map[Status]int {
	m := make(map[Status]int, len(Statuses))
	for i, s := range Statuses {
		m[s] = i
	}
	return m
}()

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank is the position of s in the pipeline, -1 when unknown.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// TransitionError is returned when a status change is not allowed.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move patient from %s to %s", e.From, e.To)
}

// Workflow decides which status changes are accepted. In strict mode the
// pipeline only moves forward (skipping stages is allowed) and CLOSED is
// terminal; otherwise any known status may be written.
type Workflow struct {
	Strict bool
}

// CanTransition reports whether from -> to is allowed.
func (w Workflow) CanTransition(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if !w.Strict || from == "" || from == to {
		return true
	}
	if from == StatusClosed {
		return false
	}
	return to.Rank() > from.Rank()
}

// Transition validates from -> to and returns the resulting status.
func (w Workflow) Transition(from, to Status) (Status, error) {
	if !to.Valid() {
		return from, fmt.Errorf("unknown status %q", to)
	}
	if !w.CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}
