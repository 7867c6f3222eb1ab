// Package job drives TRANSMUTE's transformation job lifecycle.
//
// This file implements the job state machine, which enforces valid state
// transitions and maintains an audit trail of all status changes.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors,
//     internal/transform, internal/surface, internal/telemetry, std lib
//   - MUST NOT import: internal/cli
package job

import (
	"fmt"
	"time"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// ValidTransitions defines all allowed state transitions in the job lifecycle.
// Format: from_status -> []to_statuses
//
// The state machine follows this flow:
//
//	NotStarted → Running
//	Running → Succeeded, PartiallySucceeded, Failed, Cancelled
//	Succeeded, PartiallySucceeded, Failed, Cancelled → Running
//
// Every terminal state can transition back to Running because the same
// orchestrator is reused for the next start.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.JobStatus][]constants.JobStatus{
	constants.JobStatusNotStarted: {constants.JobStatusRunning},
	constants.JobStatusRunning: {
		constants.JobStatusSucceeded,
		constants.JobStatusPartiallySucceeded,
		constants.JobStatusFailed,
		constants.JobStatusCancelled,
	},
	constants.JobStatusSucceeded:          {constants.JobStatusRunning},
	constants.JobStatusPartiallySucceeded: {constants.JobStatusRunning},
	constants.JobStatusFailed:             {constants.JobStatusRunning},
	constants.JobStatusCancelled:          {constants.JobStatusRunning},
}

// terminalStatuses defines states in which no job is in flight. These are
// intentionally duplicated from ValidTransitions for O(1) lookup performance.
// MAINTENANCE: When adding new statuses, update both ValidTransitions and this map.
//
//nolint:gochecknoglobals // Read-only lookup table for terminal state checks
var terminalStatuses = map[constants.JobStatus]bool{
	constants.JobStatusNotStarted:         true,
	constants.JobStatusSucceeded:          true,
	constants.JobStatusPartiallySucceeded: true,
	constants.JobStatusFailed:             true,
	constants.JobStatusCancelled:          true,
}

// IsValidTransition checks if a transition from one status to another is allowed.
// Returns false for transitions to the same state.
func IsValidTransition(from, to constants.JobStatus) bool {
	// Same status is not a valid transition
	if from == to {
		return false
	}

	validTargets, exists := ValidTransitions[from]
	if !exists {
		return false // Unknown state
	}
	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus returns true for states with no job in flight.
// Running is the only non-terminal status.
func IsTerminalStatus(status constants.JobStatus) bool {
	return terminalStatuses[status]
}

// Transition validates and applies a state transition to the job record.
// It records the transition in the job's audit trail and updates timestamps.
// The caller is responsible for holding the register lock and for persisting
// the updated record.
func Transition(j *domain.Job, to constants.JobStatus, reason string) error {
	if j == nil {
		return fmt.Errorf("%w: job is nil", transmuteerrors.ErrInvalidTransition)
	}

	from := j.Status
	if !IsValidTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			transmuteerrors.ErrInvalidTransition, from, to)
	}

	now := time.Now().UTC()
	j.Transitions = append(j.Transitions, domain.Transition{
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  now,
		Reason:     reason,
	})
	j.Status = to

	if to != constants.JobStatusRunning {
		j.FinishedAt = &now
	}

	return nil
}
