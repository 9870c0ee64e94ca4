package timeline

import (
	"errors"
	"fmt"
)

// State is the pagination state of a feed.
type State string

const (
	StateInitial State = "initial"
	StateReset   State = "reset"
	StateLoading State = "loading"
	StateIdle    State = "idle"
	StateFail    State = "fail"
	StateNoMore  State = "no_more"
)

// Event drives a pagination transition.
type Event string

const (
	EventActivate Event = "activate"
	EventBegin    Event = "begin"
	EventLoad     Event = "load"
	EventReset    Event = "reset"
	EventMore     Event = "more"
	EventLast     Event = "last"
	EventFailed   Event = "failed"
	EventRetry    Event = "retry"
)

var (
	// ErrIllegalTransition is wrapped by every rejected transition.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrTornDown is returned by operations on a feed that was torn down.
	ErrTornDown = errors.New("feed torn down")
	// ErrGapInProgress is returned when a gap fill for the anchor is already loading.
	ErrGapInProgress = errors.New("gap fill in progress")
	// ErrUnknownAnchor is returned when the anchor is not a member of the feed.
	ErrUnknownAnchor = errors.New("unknown anchor")
	// ErrStale marks a result discarded because its generation was superseded.
	ErrStale = errors.New("stale result")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	From  string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s on %s", ErrIllegalTransition, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

var transitions = map[State]map[Event]State{
	StateInitial: {
		EventActivate: StateReset,
	},
	StateReset: {
		EventBegin: StateLoading,
	},
	StateLoading: {
		EventMore:   StateIdle,
		EventLast:   StateNoMore,
		EventFailed: StateFail,
		EventReset:  StateReset,
	},
	StateIdle: {
		EventLoad:  StateLoading,
		EventReset: StateReset,
	},
	StateFail: {
		EventRetry: StateLoading,
		EventLoad:  StateLoading,
		EventReset: StateReset,
	},
	StateNoMore: {
		EventReset: StateReset,
	},
}

// Transition returns the state reached from s on ev.
func Transition(s State, ev Event) (State, error) {
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, &TransitionError{From: string(s), Event: string(ev)}
}

// GapState is the state of one gap-fill instance.
type GapState string

const (
	GapLoading GapState = "loading"
	GapSuccess GapState = "success"
	GapFail    GapState = "fail"
)

// GapEvent drives a gap-fill transition.
type GapEvent string

const (
	GapEventFilled   GapEvent = "filled"
	GapEventFailed   GapEvent = "failed"
	GapEventFallback GapEvent = "fallback"
)

var gapTransitions = map[GapState]map[GapEvent]GapState{
	GapLoading: {
		GapEventFilled:   GapSuccess,
		GapEventFailed:   GapFail,
		GapEventFallback: GapLoading,
	},
}

// GapTransition returns the gap state reached from s on ev. Success and Fail are terminal.
func GapTransition(s GapState, ev GapEvent) (GapState, error) {
	if to, ok := gapTransitions[s][ev]; ok {
		return to, nil
	}
	return s, &TransitionError{From: string(s), Event: string(ev)}
}
