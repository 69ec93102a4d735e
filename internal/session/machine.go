package session

import "fmt"

// Phase is the lifecycle stage of a session attempt.
type Phase string

const (
	PhaseBootstrapping Phase = "bootstrapping"
	PhaseInProgress    Phase = "in_progress"
	PhaseSubmitting    Phase = "submitting"
	PhaseSubmitted     Phase = "submitted"
	PhaseTimedOut      Phase = "timed_out"
	PhaseFailed        Phase = "failed"
)

// Terminal reports whether no further transitions are legal from p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseSubmitted, PhaseTimedOut, PhaseFailed:
		return true
	}
	return false
}

var transitions = map[Phase][]Phase{
	PhaseBootstrapping: {PhaseInProgress, PhaseFailed},
	PhaseInProgress:    {PhaseSubmitting, PhaseTimedOut},
	PhaseSubmitting:    {PhaseSubmitted, PhaseFailed},
}

// Transition validates a phase change and returns the new phase. Illegal
// transitions, including anything out of a terminal phase, return an error
// and leave the caller's phase untouched. Submitting is the mutual-exclusion
// point: once a session enters it, a concurrent timeout can no longer win.
func Transition(from, to Phase) (Phase, error) {
	for _, next := range transitions[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("illegal session transition %s -> %s", from, to)
}
