package job

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/constants"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/transform"
)

// Poller repeatedly reads the remote job status until it reaches an accepted
// value. It is side-effect free apart from GetStatus calls: status handling
// stays with the orchestrator.
type Poller struct {
	service  transform.Service
	register *Register
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a Poller with the given poll interval. A zero interval
// falls back to the default.
func NewPoller(service transform.Service, register *Register, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}
	return &Poller{
		service:  service,
		register: register,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Wait polls until the remote status is in the accept set, the job pauses
// for human input, the register's cancel flag is raised, or ctx ends.
//
// The paused sentinel returns immediately regardless of the accept set so
// the orchestrator can enter the human-in-the-loop controller. Cancellation
// returns ErrJobCancelled, distinct from any remote failure. Read errors
// from GetStatus are retried at the next tick; polling never retries
// mutating calls.
func (p *Poller) Wait(ctx context.Context, jobID string, accept transform.StatusSet) (transform.JobStatus, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.register.Cancelled() {
			return "", transmuteerrors.ErrJobCancelled
		}

		status, err := p.service.GetStatus(ctx, jobID)
		switch {
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil:
			// Transient read failure: keep polling
			p.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Msg("Status poll failed")
		case status.Projection() == transform.ProjectionPaused:
			p.logger.Debug().
				Str("job_id", jobID).
				Msg("Job paused for human input")
			return status, nil
		case accept.Contains(status):
			return status, nil
		default:
			p.logger.Debug().
				Str("job_id", jobID).
				Str("remote_status", status.String()).
				Msg("Job still in flight")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-p.register.CancelSignal():
			return "", transmuteerrors.ErrJobCancelled
		case <-ticker.C:
		}
	}
}
