package authflow

import (
	"time"
)

// State is a step of the authorization flow.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateAwaitingUser
	StatePolling
	StateAuthenticated
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGenerating:
		return "Generating"
	case StateAwaitingUser:
		return "AwaitingUser"
	case StatePolling:
		return "Polling"
	case StateAuthenticated:
		return "Authenticated"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the flow has ended. Terminal states are left only
// through Start or Retry.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed
}

// View is the state as presented to a user interface.
type View int

const (
	ViewLoading View = iota
	ViewWaitingForUser
	ViewAuthenticating
	ViewSuccess
	ViewError
)

// String returns the string representation of the view.
func (v View) String() string {
	switch v {
	case ViewLoading:
		return "Loading"
	case ViewWaitingForUser:
		return "WaitingForUser"
	case ViewAuthenticating:
		return "Authenticating"
	case ViewSuccess:
		return "Success"
	case ViewError:
		return "Error"
	default:
		return "Unknown"
	}
}

// User-facing failure messages.
const (
	MessageStartFailed      = "Failed to start authorization. Please check your connection."
	MessageRetriesExhausted = "Authorization failed after repeated attempts. Please try again."
	MessageGeneric          = "Network error. Please check your connection."
)

// Status is a snapshot of the flow.
type Status struct {
	State State

	// Code is the PIN code to show the user, uppercased. Set from
	// AwaitingUser until the flow ends.
	Code string

	// PinID identifies the PIN being polled.
	PinID int

	// ExpiresIn is the PIN lifetime reported by the service.
	ExpiresIn time.Duration

	// Attempt is the number of polls made for the current PIN.
	Attempt int

	// Retry counts automatic restarts after a timed-out PIN.
	Retry int

	// Message is the user-facing failure message. Only set when Failed.
	Message string

	// Err is the cause of a failure. Only set when Failed.
	Err error
}

// View maps the status onto the user interface states.
func (s Status) View() View {
	switch s.State {
	case StateAwaitingUser:
		return ViewWaitingForUser
	case StatePolling:
		return ViewAuthenticating
	case StateAuthenticated:
		return ViewSuccess
	case StateFailed:
		return ViewError
	default:
		return ViewLoading
	}
}
