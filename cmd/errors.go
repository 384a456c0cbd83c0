package cmd

import (
	"fmt"

	"replex/internal/app"
)

// AuthRequiredError indicates a command needs a stored token.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Reason is the underlying error, if any.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return `Not logged in to Plex

To link this device, run:
  replex auth login

To check current authentication status:
  replex auth status`
}

// Unwrap returns the underlying error.
func (e *AuthRequiredError) Unwrap() error {
	return e.Reason
}

// AuthFailedError indicates the PIN authorization flow ended without a token.
type AuthFailedError struct {
	// Message is the user-facing failure message.
	Message string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`%s

To retry authentication, run:
  replex auth login`, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// asAuthRequired converts authentication failures into AuthRequiredError so
// they map to the right exit code; other errors pass through.
func asAuthRequired(err error) error {
	if err != nil && app.IsUnauthenticated(err) {
		return &AuthRequiredError{Reason: err}
	}
	return err
}
