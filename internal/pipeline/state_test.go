package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateFiltering, true},
		{StateFiltering, StateDrafting, true},
		{StateDrafting, StateCritiquing, true},
		{StateCritiquing, StateAwaitingSelection, true},
		{StateAwaitingSelection, StateRevising, true},
		{StateRevising, StateDone, true},
		{StateRevising, StateAwaitingSelection, true},
		{StateDone, StateRevising, true},
		{StateIdle, StateDrafting, false},
		{StateAwaitingSelection, StateDone, false},
		{StateDone, StateFiltering, false},
		{StateFailed, StateIdle, false},
		{StateFailed, StateRevising, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestFailedReachableFromEveryNonTerminalWorkState(t *testing.T) {
	for _, s := range []State{StateIdle, StateFiltering, StateDrafting, StateCritiquing, StateAwaitingSelection, StateRevising} {
		assert.True(t, CanTransition(s, StateFailed), s)
	}
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateDone.Terminal())
}

func TestTurn_TransitionRejectsIllegalMoves(t *testing.T) {
	turn := NewTurn(nil)
	require.NotEmpty(t, turn.ID)
	assert.Equal(t, StateIdle, turn.State)

	err := turn.Transition(StateRevising)
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StateIdle, illegal.From)
	assert.Equal(t, StateRevising, illegal.To)
	assert.Equal(t, StateIdle, turn.State)

	require.NoError(t, turn.Transition(StateFiltering))
	turn.fail()
	assert.Equal(t, StateFailed, turn.State)
	turn.fail()
	assert.Equal(t, StateFailed, turn.State)
}
