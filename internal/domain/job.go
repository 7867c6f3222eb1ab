// Package domain provides shared domain types for the TRANSMUTE job
// orchestration system. These types are used across all internal packages to
// ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"time"

	"github.com/mrz1836/transmute/internal/constants"
)

// Job is the canonical record of one transformation job. A single mutable
// instance lives inside the orchestrator's register for the current job; a
// frozen copy is persisted to the job history store at finalize time.
//
// Example JSON representation:
//
//	{
//	    "id": "tjob-9f2c01",
//	    "status": "running",
//	    "project_path": "/home/dev/payments-service",
//	    "plan_step_progress": {"start_job": "succeeded", ...},
//	    "started_at": "2026-08-29T10:00:00Z",
//	    "schema_version": 1
//	}
type Job struct {
	// ID is the opaque identifier assigned by the transformation service once
	// the remote job starts. Empty before that.
	ID string `json:"id"`

	// Status is the current state in the job lifecycle.
	// Uses constants.JobStatus values (not_started, running, succeeded, etc.).
	Status constants.JobStatus `json:"status"`

	// ProjectPath is the root of the project being transformed.
	ProjectPath string `json:"project_path"`

	// DependencyFolder is the directory the local build populated with the
	// project's resolved dependencies.
	DependencyFolder string `json:"dependency_folder,omitempty"`

	// PayloadPath is the upload archive location. The payload is deleted
	// unconditionally at job end; the path is kept for the record.
	PayloadPath string `json:"payload_path,omitempty"`

	// PlanPath is the well-known file the fetched plan text was written to.
	PlanPath string `json:"plan_path,omitempty"`

	// FailureNotification is the accumulated user-facing failure notification
	// text. Error handlers append to it, never overwrite.
	FailureNotification string `json:"failure_notification,omitempty"`

	// FailureChatMessage is the accumulated conversational-surface variant of
	// the failure context.
	FailureChatMessage string `json:"failure_chat_message,omitempty"`

	// FailureMetadata collects supplemental failure details (build output
	// excerpts, remote error codes) in the order error handlers ran.
	FailureMetadata []string `json:"failure_metadata,omitempty"`

	// PlanStepProgress maps each tracked phase to its progress status. All
	// phases reset to pending at job start; any phase still pending at
	// finalize time is forced to failed.
	PlanStepProgress map[constants.Phase]constants.PhaseStatus `json:"plan_step_progress"`

	// Transitions is the audit trail of all status changes.
	Transitions []Transition `json:"transitions,omitempty"`

	// StartedAt is when start() was invoked.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the job finalized (nil while running).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// SchemaVersion indicates the version of the Job struct schema.
	SchemaVersion int `json:"schema_version"`
}

// Transition records a single status change for the audit trail.
type Transition struct {
	// FromStatus is the status before the transition.
	FromStatus constants.JobStatus `json:"from_status"`

	// ToStatus is the status after the transition.
	ToStatus constants.JobStatus `json:"to_status"`

	// Timestamp is when the transition occurred (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Reason is an optional explanation for the transition.
	Reason string `json:"reason,omitempty"`
}

// Elapsed returns the total job latency. Zero if the job never started.
func (j *Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt != nil {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return time.Since(j.StartedAt)
}

// Terminal reports whether the job has reached a terminal status.
// Running is the only non-terminal status; NotStarted counts as terminal
// because a new job may begin from it.
func (j *Job) Terminal() bool {
	return j.Status != constants.JobStatusRunning
}
