package authflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
		terminal bool
	}{
		{StateIdle, "Idle", false},
		{StateGenerating, "Generating", false},
		{StateAwaitingUser, "AwaitingUser", false},
		{StatePolling, "Polling", false},
		{StateAuthenticated, "Authenticated", true},
		{StateFailed, "Failed", true},
		{State(99), "Unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}

func TestStatus_View(t *testing.T) {
	tests := []struct {
		state    State
		expected View
	}{
		{StateIdle, ViewLoading},
		{StateGenerating, ViewLoading},
		{StateAwaitingUser, ViewWaitingForUser},
		{StatePolling, ViewAuthenticating},
		{StateAuthenticated, ViewSuccess},
		{StateFailed, ViewError},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, Status{State: tt.state}.View())
			assert.NotEqual(t, "Unknown", tt.expected.String())
		})
	}
}
