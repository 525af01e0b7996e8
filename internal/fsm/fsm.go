// Package fsm defines the pipeline state machine driven by the session orchestrator.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateProcessing   State = "processing"
	StateShuttingDown State = "shutting-down"
)

const (
	// EventPress starts a new recording from idle.
	EventPress Event = "press"
	// EventRelease hands a recording off to the processing worker. The
	// max-duration timer reuses this event so both paths are identical.
	EventRelease Event = "release"
	// EventAbort rolls a recording back to idle when capture start fails.
	EventAbort Event = "abort"
	// EventComplete returns to idle once the worker finishes.
	EventComplete Event = "complete"
	// EventShutdown is valid from every state and is terminal.
	EventShutdown Event = "shutdown"
)

func Transition(current State, event Event) (State, error) {
	if event == EventShutdown {
		return StateShuttingDown, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventPress:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventRelease:
			return StateProcessing, nil
		case EventAbort:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventComplete:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateShuttingDown:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
