package pipeline

import "fmt"

// State is the lifecycle position of a Turn.
type State string

// Turn states
const (
	StateIdle              State = "idle"
	StateFiltering         State = "filtering"
	StateDrafting          State = "drafting"
	StateCritiquing        State = "critiquing"
	StateAwaitingSelection State = "awaiting_selection"
	StateRevising          State = "revising"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// transitions lists the legal next states. Failed is terminal; Done may be
// revised again. Revising falls back to AwaitingSelection when the first
// revision fails transiently.
var transitions = map[State][]State{
	StateIdle:              {StateFiltering, StateFailed},
	StateFiltering:         {StateDrafting, StateFailed},
	StateDrafting:          {StateCritiquing, StateFailed},
	StateCritiquing:        {StateAwaitingSelection, StateFailed},
	StateAwaitingSelection: {StateRevising, StateFailed},
	StateRevising:          {StateDone, StateAwaitingSelection, StateFailed},
	StateDone:              {StateRevising},
	StateFailed:            {},
}

// IllegalTransitionError is returned when a Turn is asked to move to a state
// that cannot follow its current one.
type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}
