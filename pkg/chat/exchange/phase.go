package exchange

import "fmt"

// Phase is the state of one exchange: Idle -> Sending -> Succeeded | Failed.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseSending   Phase = "SENDING"
	PhaseSucceeded Phase = "SUCCEEDED"
	PhaseFailed    Phase = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

func canTransition(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case PhaseIdle:
		return to == PhaseSending
	case PhaseSending:
		return to == PhaseSucceeded || to == PhaseFailed
	}
	return false
}

type tracker struct {
	phase Phase
}

func newTracker() *tracker {
	return &tracker{phase: PhaseIdle}
}

func (t *tracker) to(next Phase) {
	if !canTransition(t.phase, next) {
		panic(fmt.Sprintf("exchange: illegal transition %s -> %s", t.phase, next))
	}
	t.phase = next
}
