package job

import (
	"sync"

	"github.com/mrz1836/transmute/internal/clock"
	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// Register is the single mutable job record for one orchestrator. All
// mutation happens through its methods under one mutex; readers take value
// snapshots. The orchestrator sequence is the only writer apart from the
// cancel entry point.
//
// Cancellation is level-triggered: Cancel flips a flag the in-flight
// sequence observes at its next poll point, and closes a signal channel for
// the blocking human-in-the-loop wait.
type Register struct {
	mu        sync.Mutex
	job       domain.Job
	cancelled bool
	cancelSig chan struct{}
	clk       clock.Clock
}

// NewRegister creates a Register in the not_started state.
func NewRegister(clk clock.Clock) *Register {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Register{
		job: domain.Job{
			Status:        constants.JobStatusNotStarted,
			SchemaVersion: constants.JobSchemaVersion,
		},
		cancelSig: make(chan struct{}),
		clk:       clk,
	}
}

// Begin transitions the register into a fresh running job for projectPath.
// Returns ErrJobAlreadyRunning while a job is in flight. All transient
// fields reset: phases back to pending, failure context cleared, cancel
// flag lowered with a fresh signal channel.
func (r *Register) Begin(projectPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job.Status == constants.JobStatusRunning {
		return transmuteerrors.ErrJobAlreadyRunning
	}

	previous := r.job.Transitions
	r.job = domain.Job{
		Status:        r.job.Status,
		ProjectPath:   projectPath,
		Transitions:   previous,
		SchemaVersion: constants.JobSchemaVersion,
	}
	if err := Transition(&r.job, constants.JobStatusRunning, "start"); err != nil {
		return err
	}

	r.job.StartedAt = r.clk.Now().UTC()
	r.job.FinishedAt = nil
	r.job.PlanStepProgress = make(map[constants.Phase]constants.PhaseStatus, len(constants.OrderedPhases))
	for _, phase := range constants.OrderedPhases {
		r.job.PlanStepProgress[phase] = constants.PhaseStatusPending
	}

	r.cancelled = false
	r.cancelSig = make(chan struct{})
	return nil
}

// Finish transitions the running job to a terminal status. No-op with an
// ErrInvalidTransition error if the job is not running.
func (r *Register) Finish(to constants.JobStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Transition(&r.job, to, reason)
}

// Cancel marks the job cancelled. The status flips immediately; the
// in-flight sequence observes the flag at its next poll point and unwinds.
// Returns ErrJobNotRunning if no job is in flight.
func (r *Register) Cancel(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job.Status != constants.JobStatusRunning {
		return transmuteerrors.ErrJobNotRunning
	}
	if err := Transition(&r.job, constants.JobStatusCancelled, reason); err != nil {
		return err
	}
	r.cancelled = true
	close(r.cancelSig)
	return nil
}

// Cancelled reports whether the current job has been cancelled.
func (r *Register) Cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// CancelSignal returns a channel closed when the current job is cancelled.
// Blocking waits select on it alongside their other completion sources.
func (r *Register) CancelSignal() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelSig
}

// Running reports whether a job is in flight.
func (r *Register) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.Status == constants.JobStatusRunning
}

// JobID returns the remote job id, or empty before the remote job started.
func (r *Register) JobID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.ID
}

// SetJobID records the remote job id assigned by StartJob.
func (r *Register) SetJobID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.ID = id
}

// SetDependencyFolder records the local dependency folder.
func (r *Register) SetDependencyFolder(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.DependencyFolder = path
}

// SetPayloadPath records the upload archive location.
func (r *Register) SetPayloadPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.PayloadPath = path
}

// SetPlanPath records where the fetched plan text was persisted.
func (r *Register) SetPlanPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.PlanPath = path
}

// MarkPhase updates one phase's progress status.
func (r *Register) MarkPhase(phase constants.Phase, status constants.PhaseStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job.PlanStepProgress == nil {
		r.job.PlanStepProgress = make(map[constants.Phase]constants.PhaseStatus)
	}
	r.job.PlanStepProgress[phase] = status
}

// ForcePendingPhasesFailed flips every still-pending phase to failed. Called
// once at finalize time so the progress display never shows pending phases
// for a finished job.
func (r *Register) ForcePendingPhasesFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phase, status := range r.job.PlanStepProgress {
		if status == constants.PhaseStatusPending {
			r.job.PlanStepProgress[phase] = constants.PhaseStatusFailed
		}
	}
}

// AppendFailure accumulates failure context. Notification and chat text are
// appended, never overwritten; metadata entries keep handler order.
func (r *Register) AppendFailure(notification, chatMessage string, metadata ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification != "" {
		if r.job.FailureNotification != "" {
			r.job.FailureNotification += "\n"
		}
		r.job.FailureNotification += notification
	}
	if chatMessage != "" {
		if r.job.FailureChatMessage != "" {
			r.job.FailureChatMessage += "\n"
		}
		r.job.FailureChatMessage += chatMessage
	}
	r.job.FailureMetadata = append(r.job.FailureMetadata, metadata...)
}

// Snapshot returns a deep copy of the current job record for display,
// telemetry and persistence.
func (r *Register) Snapshot() domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.job

	if r.job.PlanStepProgress != nil {
		snap.PlanStepProgress = make(map[constants.Phase]constants.PhaseStatus, len(r.job.PlanStepProgress))
		for k, v := range r.job.PlanStepProgress {
			snap.PlanStepProgress[k] = v
		}
	}
	if r.job.FailureMetadata != nil {
		snap.FailureMetadata = append([]string(nil), r.job.FailureMetadata...)
	}
	if r.job.Transitions != nil {
		snap.Transitions = append([]domain.Transition(nil), r.job.Transitions...)
	}
	if r.job.FinishedAt != nil {
		finished := *r.job.FinishedAt
		snap.FinishedAt = &finished
	}

	return snap
}
