package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEvents = []Event{EventActivate, EventBegin, EventLoad, EventReset, EventMore, EventLast, EventFailed, EventRetry}

func legalEvents(s State) map[Event]State {
	out := map[Event]State{}
	for _, ev := range allEvents {
		if to, err := Transition(s, ev); err == nil {
			out[ev] = to
		}
	}
	return out
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from State
		want map[Event]State
	}{
		{StateInitial, map[Event]State{EventActivate: StateReset}},
		{StateReset, map[Event]State{EventBegin: StateLoading}},
		{StateLoading, map[Event]State{EventMore: StateIdle, EventLast: StateNoMore, EventFailed: StateFail, EventReset: StateReset}},
		{StateIdle, map[Event]State{EventLoad: StateLoading, EventReset: StateReset}},
		{StateFail, map[Event]State{EventRetry: StateLoading, EventLoad: StateLoading, EventReset: StateReset}},
		{StateNoMore, map[Event]State{EventReset: StateReset}},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, legalEvents(tt.from))
		})
	}
}

func TestTransition_IllegalIsCheckedError(t *testing.T) {
	to, err := Transition(StateNoMore, EventLoad)
	require.Error(t, err)
	assert.Equal(t, StateNoMore, to)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "no_more", te.From)
	assert.Equal(t, "load", te.Event)
}

func TestGapTransition(t *testing.T) {
	to, err := GapTransition(GapLoading, GapEventFallback)
	require.NoError(t, err)
	assert.Equal(t, GapLoading, to)

	to, err = GapTransition(GapLoading, GapEventFilled)
	require.NoError(t, err)
	assert.Equal(t, GapSuccess, to)

	for _, terminal := range []GapState{GapSuccess, GapFail} {
		for _, ev := range []GapEvent{GapEventFilled, GapEventFailed, GapEventFallback} {
			_, err := GapTransition(terminal, ev)
			assert.ErrorIs(t, err, ErrIllegalTransition, "%s on %s", ev, terminal)
		}
	}
}
