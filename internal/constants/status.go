package constants

// JobStatus represents the state of a transformation job in the TRANSMUTE
// state machine. Status values use snake_case for JSON serialization
// compatibility.
type JobStatus string

// Job status constants define the valid states a job can be in.
// These follow the state machine defined in the architecture:
//
//	NotStarted → Running
//	Running → Succeeded, PartiallySucceeded, Failed, Cancelled
//	Succeeded, PartiallySucceeded, Failed, Cancelled → Running
//
// Running is the only non-terminal state; every other state is terminal
// until the next start.
const (
	// JobStatusNotStarted indicates no job has been started yet.
	JobStatusNotStarted JobStatus = "not_started"

	// JobStatusRunning indicates a job is actively being driven through the
	// upload, start, plan and completion phases.
	JobStatusRunning JobStatus = "running"

	// JobStatusSucceeded indicates the remote job finished with COMPLETED.
	JobStatusSucceeded JobStatus = "succeeded"

	// JobStatusPartiallySucceeded indicates the remote job finished with
	// PARTIALLY_COMPLETED.
	JobStatusPartiallySucceeded JobStatus = "partially_succeeded"

	// JobStatusFailed indicates the job failed in any phase, locally or
	// remotely.
	JobStatusFailed JobStatus = "failed"

	// JobStatusCancelled indicates the user cancelled the job while it was
	// running. Cancellation is level-triggered: the in-flight sequence
	// observes it at its next poll point and unwinds to finalize.
	JobStatusCancelled JobStatus = "cancelled"
)

// String returns the string representation of the JobStatus.
// This implements fmt.Stringer for convenient logging and debugging.
func (s JobStatus) String() string {
	return string(s)
}

// Phase identifies one of the four tracked stages of a job used for
// progress display.
type Phase string

// Phase constants for per-phase progress tracking.
const (
	// PhaseStartJob covers upload and remote job start.
	PhaseStartJob Phase = "start_job"

	// PhaseBuildCode covers the remote build of the uploaded sources.
	PhaseBuildCode Phase = "build_code"

	// PhaseGeneratePlan covers remote plan generation.
	PhaseGeneratePlan Phase = "generate_plan"

	// PhaseTransformCode covers the remote transformation itself, including
	// any human-in-the-loop cycles.
	PhaseTransformCode Phase = "transform_code"
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	return string(p)
}

// OrderedPhases lists all phases in execution order. Used when resetting
// progress at job start and when forcing still-pending phases to failed at
// finalize time.
//
//nolint:gochecknoglobals // Read-only lookup table
var OrderedPhases = []Phase{
	PhaseStartJob,
	PhaseBuildCode,
	PhaseGeneratePlan,
	PhaseTransformCode,
}

// PhaseStatus represents the progress state of a single job phase.
type PhaseStatus string

// Phase status constants.
const (
	// PhaseStatusPending indicates the phase has not completed yet.
	PhaseStatusPending PhaseStatus = "pending"

	// PhaseStatusSucceeded indicates the phase completed successfully.
	PhaseStatusSucceeded PhaseStatus = "succeeded"

	// PhaseStatusFailed indicates the phase failed, or was still pending when
	// the job finalized.
	PhaseStatusFailed PhaseStatus = "failed"
)

// String returns the string representation of the PhaseStatus.
func (s PhaseStatus) String() string {
	return string(s)
}
