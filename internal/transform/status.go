// Package transform defines the contract TRANSMUTE requires from the remote
// transformation service, the closed status vocabulary that service speaks,
// and an HTTP client implementation of the contract.
package transform

// JobStatus is the remote service's job status vocabulary. The orchestrator
// never dispatches on these values directly; it only understands the three
// projections returned by Projection(). Keeping the raw vocabulary closed in
// this package isolates remote-API churn from the core state machine.
type JobStatus string

// Remote job status values.
const (
	// StatusCreated through StatusTransforming are in-flight states the
	// poller waits through.
	StatusCreated      JobStatus = "CREATED"
	StatusAccepted     JobStatus = "ACCEPTED"
	StatusStarted      JobStatus = "STARTED"
	StatusPreparing    JobStatus = "PREPARING"
	StatusPrepared     JobStatus = "PREPARED"
	StatusPlanning     JobStatus = "PLANNING"
	StatusPlanned      JobStatus = "PLANNED"
	StatusTransforming JobStatus = "TRANSFORMING"

	// StatusPaused is the needs-human-input sentinel: the remote job has
	// suspended itself waiting for a dependency-version decision.
	StatusPaused JobStatus = "PAUSED"

	// Terminal states. Only StatusCompleted and StatusPartiallyCompleted are
	// acceptable outcomes; everything else terminal maps to a failure.
	StatusCompleted          JobStatus = "COMPLETED"
	StatusPartiallyCompleted JobStatus = "PARTIALLY_COMPLETED"
	StatusStopping           JobStatus = "STOPPING"
	StatusStopped            JobStatus = "STOPPED"
	StatusFailed             JobStatus = "FAILED"
	StatusRejected           JobStatus = "REJECTED"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// Projection is the orchestrator-facing reading of a remote status. The
// orchestrator only distinguishes "the plan is ready", "the job needs human
// input", and "the job is done"; everything else is in-flight.
type Projection int

// Projection values.
const (
	// ProjectionInFlight means keep polling.
	ProjectionInFlight Projection = iota

	// ProjectionPlanReady means the plan has been generated and can be fetched.
	ProjectionPlanReady

	// ProjectionPaused means the job is suspended waiting for human input.
	ProjectionPaused

	// ProjectionTerminal means no further automatic progress will occur.
	ProjectionTerminal
)

// planReadyStatuses are statuses at or past plan generation. A job that has
// already moved on to transforming necessarily has a plan.
//
//nolint:gochecknoglobals // Read-only lookup table
var planReadyStatuses = map[JobStatus]bool{
	StatusPlanned:      true,
	StatusTransforming: true,
}

// terminalStatuses are statuses from which no further automatic progress
// occurs without starting a new job.
//
//nolint:gochecknoglobals // Read-only lookup table
var terminalStatuses = map[JobStatus]bool{
	StatusCompleted:          true,
	StatusPartiallyCompleted: true,
	StatusStopped:            true,
	StatusFailed:             true,
	StatusRejected:           true,
}

// Projection maps the raw status onto the three readings the orchestrator
// understands. StatusPaused always projects to ProjectionPaused regardless of
// what the poller was waiting for.
func (s JobStatus) Projection() Projection {
	switch {
	case s == StatusPaused:
		return ProjectionPaused
	case terminalStatuses[s]:
		return ProjectionTerminal
	case planReadyStatuses[s]:
		return ProjectionPlanReady
	default:
		return ProjectionInFlight
	}
}

// Terminal reports whether the status is terminal.
func (s JobStatus) Terminal() bool {
	return terminalStatuses[s]
}

// StatusSet is an acceptance set for the poller.
type StatusSet map[JobStatus]bool

// NewStatusSet builds a StatusSet from the given statuses.
func NewStatusSet(statuses ...JobStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// Contains reports whether the set contains the status.
func (set StatusSet) Contains(s JobStatus) bool {
	return set[s]
}

// PlanReadySet is the poller acceptance set for the plan phase: reached when
// the plan exists or the job went terminal underneath us.
func PlanReadySet() StatusSet {
	return NewStatusSet(
		StatusPlanned, StatusTransforming,
		StatusCompleted, StatusPartiallyCompleted,
		StatusStopped, StatusFailed, StatusRejected,
	)
}

// TerminalSet is the poller acceptance set for the completion phase.
func TerminalSet() StatusSet {
	return NewStatusSet(
		StatusCompleted, StatusPartiallyCompleted,
		StatusStopped, StatusFailed, StatusRejected,
	)
}
