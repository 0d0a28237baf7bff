// Package fsm is the recording lifecycle transition table.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StateError      State = "error"
)

const (
	EventStart   Event = "start"
	EventStop    Event = "stop"
	EventCancel  Event = "cancel"
	EventDrained Event = "drained"
	EventFail    Event = "fail"
	EventReset   Event = "reset"
)

type edge struct {
	from  State
	event Event
}

var table = map[edge]State{
	{StateIdle, EventStart}:         StateRecording,
	{StateRecording, EventStop}:     StateProcessing,
	{StateRecording, EventCancel}:   StateIdle,
	{StateProcessing, EventDrained}: StateIdle,
	{StateError, EventReset}:        StateIdle,
}

// Transition returns the state reached from current on event. Fail is
// accepted from every state.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateRecording, StateProcessing, StateError:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	next, ok := table[edge{current, event}]
	if !ok {
		return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
	}
	return next, nil
}
