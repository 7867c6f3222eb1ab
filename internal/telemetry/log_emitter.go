package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/constants"
)

// LogEmitter writes telemetry events to a zerolog logger. This is the
// production emitter: events land in the structured log stream alongside the
// orchestrator's own entries and can be shipped from there.
type LogEmitter struct {
	logger zerolog.Logger
}

// NewLogEmitter creates a LogEmitter writing to the given logger.
func NewLogEmitter(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Ensure LogEmitter implements Emitter.
var _ Emitter = (*LogEmitter)(nil)

// JobStarted implements Emitter.
func (e *LogEmitter) JobStarted(projectPath string) {
	e.logger.Info().
		Str("event_type", "job_started").
		Str("project_path", projectPath).
		Msg("telemetry")
}

// JobResumed implements Emitter.
func (e *LogEmitter) JobResumed(jobID, outcome string) {
	e.logger.Info().
		Str("event_type", "job_resumed").
		Str("job_id", jobID).
		Str("outcome", outcome).
		Msg("telemetry")
}

// JobCancelled implements Emitter.
func (e *LogEmitter) JobCancelled(jobID, reason string) {
	e.logger.Info().
		Str("event_type", "job_cancelled").
		Str("job_id", jobID).
		Str("reason", reason).
		Msg("telemetry")
}

// RemoteCall implements Emitter.
func (e *LogEmitter) RemoteCall(operation string, duration time.Duration, err error) {
	evt := e.logger.Debug().
		Str("event_type", "remote_call").
		Str("operation", operation).
		Int64("duration_ms", duration.Milliseconds())
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("telemetry")
}

// HILEntered implements Emitter.
func (e *LogEmitter) HILEntered(jobID string) {
	e.logger.Info().
		Str("event_type", "hil_entered").
		Str("job_id", jobID).
		Msg("telemetry")
}

// HILExited implements Emitter.
func (e *LogEmitter) HILExited(jobID, result string) {
	e.logger.Info().
		Str("event_type", "hil_exited").
		Str("job_id", jobID).
		Str("result", result).
		Msg("telemetry")
}

// JobFinished implements Emitter.
func (e *LogEmitter) JobFinished(jobID string, status constants.JobStatus, total time.Duration) {
	e.logger.Info().
		Str("event_type", "job_finished").
		Str("job_id", jobID).
		Str("status", status.String()).
		Int64("total_ms", total.Milliseconds()).
		Msg("telemetry")
}
