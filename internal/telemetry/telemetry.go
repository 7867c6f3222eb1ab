// Package telemetry provides fire-and-forget event emission for TRANSMUTE.
//
// Emitters receive job lifecycle events, per-remote-call latency, and
// human-in-the-loop entry/exit. Emission is best-effort and must never block
// or fail the orchestrator; implementations are expected to swallow their own
// errors. Events are always emitted after the job register has been updated
// for the phase they describe.
package telemetry

import (
	"time"

	"github.com/mrz1836/transmute/internal/constants"
)

// HIL result values reported via Emitter.HILExited.
const (
	// HILResultResolved indicates the user supplied a choice and the remote
	// job was resumed with COMPLETED.
	HILResultResolved = "resolved"

	// HILResultShortCircuited indicates the cycle fell back to resuming the
	// remote job with REJECTED.
	HILResultShortCircuited = "short_circuited"

	// HILResultCancelled indicates the containing job was cancelled while the
	// cycle was in flight.
	HILResultCancelled = "cancelled"
)

// Emitter collects telemetry about job and remote-call execution.
// Implementations can send these to monitoring systems or log sinks.
type Emitter interface {
	// JobStarted is called when a new job begins execution.
	JobStarted(projectPath string)

	// JobResumed is called after the remote job is resumed from a paused
	// state. Outcome is "COMPLETED" or "REJECTED".
	JobResumed(jobID, outcome string)

	// JobCancelled is called when the user cancels a running job.
	JobCancelled(jobID, reason string)

	// RemoteCall is called after each transformation service call completes.
	RemoteCall(operation string, duration time.Duration, err error)

	// HILEntered is called when a human-in-the-loop cycle begins.
	HILEntered(jobID string)

	// HILExited is called when a human-in-the-loop cycle ends, with one of
	// the HILResult values.
	HILExited(jobID, result string)

	// JobFinished is called exactly once per job with the final status and
	// total elapsed latency.
	JobFinished(jobID string, status constants.JobStatus, total time.Duration)
}

// Noop is a no-op implementation of Emitter for default behavior.
// Use this when telemetry collection is not needed.
type Noop struct{}

// Ensure Noop implements Emitter.
var _ Emitter = (*Noop)(nil)

// JobStarted implements Emitter.
func (Noop) JobStarted(string) {}

// JobResumed implements Emitter.
func (Noop) JobResumed(string, string) {}

// JobCancelled implements Emitter.
func (Noop) JobCancelled(string, string) {}

// RemoteCall implements Emitter.
func (Noop) RemoteCall(string, time.Duration, error) {}

// HILEntered implements Emitter.
func (Noop) HILEntered(string) {}

// HILExited implements Emitter.
func (Noop) HILExited(string, string) {}

// JobFinished implements Emitter.
func (Noop) JobFinished(string, constants.JobStatus, time.Duration) {}
