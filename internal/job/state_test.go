package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// TestIsValidTransition_AllValidTransitions verifies every row of the
// transitions table.
func TestIsValidTransition_AllValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from constants.JobStatus
		to   constants.JobStatus
	}{
		{"not_started to running", constants.JobStatusNotStarted, constants.JobStatusRunning},

		{"running to succeeded", constants.JobStatusRunning, constants.JobStatusSucceeded},
		{"running to partially_succeeded", constants.JobStatusRunning, constants.JobStatusPartiallySucceeded},
		{"running to failed", constants.JobStatusRunning, constants.JobStatusFailed},
		{"running to cancelled", constants.JobStatusRunning, constants.JobStatusCancelled},

		// Every terminal state allows a new start
		{"succeeded to running", constants.JobStatusSucceeded, constants.JobStatusRunning},
		{"partially_succeeded to running", constants.JobStatusPartiallySucceeded, constants.JobStatusRunning},
		{"failed to running", constants.JobStatusFailed, constants.JobStatusRunning},
		{"cancelled to running", constants.JobStatusCancelled, constants.JobStatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsValidTransition(tt.from, tt.to),
				"transition from %s to %s should be valid", tt.from, tt.to)
		})
	}
}

// TestIsValidTransition_InvalidTransitions verifies transitions that are NOT
// allowed.
func TestIsValidTransition_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from constants.JobStatus
		to   constants.JobStatus
	}{
		{"same state running", constants.JobStatusRunning, constants.JobStatusRunning},
		{"same state succeeded", constants.JobStatusSucceeded, constants.JobStatusSucceeded},
		{"not_started to succeeded", constants.JobStatusNotStarted, constants.JobStatusSucceeded},
		{"not_started to failed", constants.JobStatusNotStarted, constants.JobStatusFailed},
		{"not_started to cancelled", constants.JobStatusNotStarted, constants.JobStatusCancelled},
		{"running to not_started", constants.JobStatusRunning, constants.JobStatusNotStarted},
		{"succeeded to failed", constants.JobStatusSucceeded, constants.JobStatusFailed},
		{"failed to succeeded", constants.JobStatusFailed, constants.JobStatusSucceeded},
		{"cancelled to failed", constants.JobStatusCancelled, constants.JobStatusFailed},
		{"unknown state", constants.JobStatus("bogus"), constants.JobStatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsValidTransition(tt.from, tt.to),
				"transition from %s to %s should be invalid", tt.from, tt.to)
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	tests := []struct {
		status   constants.JobStatus
		terminal bool
	}{
		{constants.JobStatusNotStarted, true},
		{constants.JobStatusRunning, false},
		{constants.JobStatusSucceeded, true},
		{constants.JobStatusPartiallySucceeded, true},
		{constants.JobStatusFailed, true},
		{constants.JobStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, IsTerminalStatus(tt.status))
		})
	}
}

func TestTransition_RecordsAuditTrail(t *testing.T) {
	j := &domain.Job{Status: constants.JobStatusNotStarted}

	require.NoError(t, Transition(j, constants.JobStatusRunning, "start"))
	require.NoError(t, Transition(j, constants.JobStatusSucceeded, "remote status COMPLETED"))

	require.Len(t, j.Transitions, 2)
	assert.Equal(t, constants.JobStatusNotStarted, j.Transitions[0].FromStatus)
	assert.Equal(t, constants.JobStatusRunning, j.Transitions[0].ToStatus)
	assert.Equal(t, "start", j.Transitions[0].Reason)
	assert.Equal(t, constants.JobStatusRunning, j.Transitions[1].FromStatus)
	assert.Equal(t, constants.JobStatusSucceeded, j.Transitions[1].ToStatus)
	assert.False(t, j.Transitions[1].Timestamp.IsZero())
}

func TestTransition_SetsFinishedAtOnTerminal(t *testing.T) {
	j := &domain.Job{Status: constants.JobStatusNotStarted}

	require.NoError(t, Transition(j, constants.JobStatusRunning, ""))
	assert.Nil(t, j.FinishedAt, "running must not set FinishedAt")

	require.NoError(t, Transition(j, constants.JobStatusFailed, "boom"))
	require.NotNil(t, j.FinishedAt)
}

func TestTransition_RejectsInvalid(t *testing.T) {
	j := &domain.Job{Status: constants.JobStatusNotStarted}

	err := Transition(j, constants.JobStatusSucceeded, "")
	require.ErrorIs(t, err, transmuteerrors.ErrInvalidTransition)
	assert.Empty(t, j.Transitions)
	assert.Equal(t, constants.JobStatusNotStarted, j.Status)
}

func TestTransition_NilJob(t *testing.T) {
	err := Transition(nil, constants.JobStatusRunning, "")
	require.ErrorIs(t, err, transmuteerrors.ErrInvalidTransition)
}
