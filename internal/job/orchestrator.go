package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/transmute/internal/clock"
	"github.com/mrz1836/transmute/internal/constants"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/packager"
	"github.com/mrz1836/transmute/internal/surface"
	"github.com/mrz1836/transmute/internal/telemetry"
	"github.com/mrz1836/transmute/internal/transform"
)

// Orchestrator drives one transformation job end to end: package and upload
// the project, start the remote job, wait for the plan, wait for completion
// (running human-in-the-loop cycles whenever the job pauses), and reconcile
// the outcome with the register, the surface and the history store.
//
// At most one job is active per Orchestrator. Start while running is
// rejected with ErrJobAlreadyRunning; terminal statuses allow a new start.
type Orchestrator struct {
	service   transform.Service
	packager  packager.Packager
	surface   surface.Surface
	telemetry telemetry.Emitter
	store     Store
	register  *Register
	poller    *Poller
	hil       *HILController
	clk       clock.Clock
	logger    zerolog.Logger

	workDir          string
	progressInterval time.Duration
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	telemetry        telemetry.Emitter
	store            Store
	clk              clock.Clock
	workDir          string
	pollInterval     time.Duration
	progressInterval time.Duration
}

// WithTelemetry sets the telemetry emitter. Defaults to telemetry.Noop.
func WithTelemetry(e telemetry.Emitter) Option {
	return func(o *options) {
		if e != nil {
			o.telemetry = e
		}
	}
}

// WithStore sets the job history store. Without one, finalized jobs are not
// persisted.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

// WithClock sets the clock. Defaults to the system clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clk = c
		}
	}
}

// WithWorkDir sets the job working directory for payloads, the plan file and
// human-in-the-loop temp state. Defaults to a directory under os.TempDir.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.workDir = dir
		}
	}
}

// WithPollInterval sets the remote status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithProgressInterval sets the progress refresh interval.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.progressInterval = d
		}
	}
}

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(
	service transform.Service,
	pkg packager.Packager,
	probe VersionProber,
	surf surface.Surface,
	logger zerolog.Logger,
	opts ...Option,
) *Orchestrator {
	cfg := options{
		telemetry:        telemetry.Noop{},
		clk:              clock.RealClock{},
		workDir:          filepath.Join(os.TempDir(), "transmute"),
		pollInterval:     constants.DefaultPollInterval,
		progressInterval: constants.DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger = logger.With().Str("component", "orchestrator").Logger()
	register := NewRegister(cfg.clk)

	return &Orchestrator{
		service:          service,
		packager:         pkg,
		surface:          surf,
		telemetry:        cfg.telemetry,
		store:            cfg.store,
		register:         register,
		poller:           NewPoller(service, register, cfg.pollInterval, logger),
		hil:              NewHILController(service, register, pkg, probe, surf, cfg.telemetry, cfg.workDir, logger),
		clk:              cfg.clk,
		logger:           logger,
		workDir:          cfg.workDir,
		progressInterval: cfg.progressInterval,
	}
}

// Register exposes the job register for status displays.
func (o *Orchestrator) Register() *Register {
	return o.register
}

// SubmitChoice forwards a dependency version choice to the pending
// human-in-the-loop cycle. Returns ErrNoPendingChoice when none is waiting.
func (o *Orchestrator) SubmitChoice(version string) error {
	return o.hil.SubmitChoice(version)
}

// Start runs one transformation job for projectPath. It blocks until the job
// finalizes and returns the causal error for failed or cancelled outcomes.
// Rejected with ErrJobAlreadyRunning while a job is in flight.
func (o *Orchestrator) Start(ctx context.Context, projectPath string) error {
	if err := o.register.Begin(projectPath); err != nil {
		return err
	}

	if err := o.resetWorkDir(); err != nil {
		cause := o.fail(err, packagingFailure(err))
		o.finalize()
		return cause
	}

	o.surface.JobStarted(projectPath)
	o.telemetry.JobStarted(projectPath)
	o.logger.Info().Str("project_path", projectPath).Msg("Transformation job started")

	// Background progress refresh, stopped unconditionally in finalize.
	progressCtx, stopProgress := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	g.Go(func() error {
		o.progressLoop(progressCtx)
		return nil
	})

	defer func() {
		stopProgress()
		_ = g.Wait()
		o.finalize()
	}()

	return o.run(ctx, projectPath)
}

// Cancel cancels the running job. The local status flips to cancelled
// immediately; stopping the remote job is best-effort and a stop failure
// never changes the local status. Returns ErrJobNotRunning when idle.
func (o *Orchestrator) Cancel(ctx context.Context, reason string) error {
	jobID := o.register.JobID()
	if err := o.register.Cancel(reason); err != nil {
		return err
	}

	o.logger.Info().Str("job_id", jobID).Str("reason", reason).Msg("Job cancelled")
	o.telemetry.JobCancelled(jobID, reason)

	if jobID != "" {
		if err := o.service.StopJob(ctx, jobID); err != nil {
			o.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Msg("Remote stop failed; local status stays cancelled")
		}
	}
	return nil
}

// run drives the phase sequence. Every failure path goes through o.fail so
// cancellation is never misreported as a generic failure.
func (o *Orchestrator) run(ctx context.Context, projectPath string) error {
	// Upload phase: local build, packaging, upload URL, payload transfer.
	// Failures here never start the remote job.
	depFolder := filepath.Join(o.workDir, constants.DependenciesDir)
	o.register.SetDependencyFolder(depFolder)

	if err := o.packager.PrepareDependencies(ctx, projectPath, depFolder); err != nil {
		o.surface.ShowBuildOutput(err.Error())
		return o.fail(err, packagingFailure(err))
	}

	payloadPath, err := o.packager.Package(ctx, projectPath, depFolder, o.workDir)
	if err != nil {
		return o.fail(err, packagingFailure(err))
	}
	o.register.SetPayloadPath(payloadPath)

	target, err := o.service.CreateUploadURL(ctx)
	if err != nil {
		return o.fail(err, uploadFailure())
	}
	if err = o.service.UploadPayload(ctx, payloadPath, target, ""); err != nil {
		return o.fail(err, uploadFailure())
	}

	// Start phase.
	jobID, err := o.service.StartJob(ctx, target.UploadID)
	if err != nil {
		return o.fail(err, startFailure(err))
	}
	o.register.SetJobID(jobID)
	o.register.MarkPhase(constants.PhaseStartJob, constants.PhaseStatusSucceeded)
	o.logger.Info().Str("job_id", jobID).Msg("Remote job started")

	// Plan phase: wait until the plan exists, fetch and surface it. A pause
	// here still enters the human-in-the-loop controller.
	status, err := o.waitThroughPauses(ctx, jobID, transform.PlanReadySet())
	if err != nil {
		return o.fail(err, planFailure())
	}
	o.register.MarkPhase(constants.PhaseBuildCode, constants.PhaseStatusSucceeded)

	if status.Terminal() {
		return o.handleTerminal(status)
	}

	if err = o.fetchPlan(ctx, jobID); err != nil {
		return o.fail(err, planFailure())
	}
	o.register.MarkPhase(constants.PhaseGeneratePlan, constants.PhaseStatusSucceeded)

	// Completion phase: poll until terminal, entering the human-in-the-loop
	// controller each time the job pauses. Repeated cycles are expected.
	status, err = o.waitThroughPauses(ctx, jobID, transform.TerminalSet())
	if err != nil {
		return o.fail(err, completionFailure(err))
	}
	return o.handleTerminal(status)
}

// waitThroughPauses polls for the accept set, running one human-in-the-loop
// cycle per pause before re-entering the wait. A short-circuited cycle
// records its failure context and keeps waiting: the remote job was resumed
// with REJECTED and will still reach a terminal status.
func (o *Orchestrator) waitThroughPauses(ctx context.Context, jobID string, accept transform.StatusSet) (transform.JobStatus, error) {
	for {
		status, err := o.poller.Wait(ctx, jobID, accept)
		if err != nil {
			return "", err
		}
		if status.Projection() != transform.ProjectionPaused {
			return status, nil
		}

		if err = o.hil.Run(ctx, jobID); err != nil {
			if transmuteerrors.Is(err, transmuteerrors.ErrJobCancelled) || ctx.Err() != nil {
				return "", err
			}
			fc := completionFailure(err)
			o.register.AppendFailure(fc.notification, fc.chatMessage, err.Error())
			o.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Msg("Human-in-the-loop cycle failed; job resumed without a choice")
		}
	}
}

// fetchPlan retrieves the plan text, persists it to the well-known plan file
// and shows it on the surface.
func (o *Orchestrator) fetchPlan(ctx context.Context, jobID string) error {
	text, err := o.service.GetPlan(ctx, jobID)
	if err != nil {
		return err
	}

	planPath := filepath.Join(o.workDir, constants.PlanFileName)
	if err = os.WriteFile(planPath, []byte(text), 0o600); err != nil {
		return transmuteerrors.Wrap(err, "failed to persist plan")
	}
	o.register.SetPlanPath(planPath)
	o.surface.ShowPlan(planPath)
	return nil
}

// handleTerminal maps the remote terminal status onto the local outcome.
// Only COMPLETED and PARTIALLY_COMPLETED are successful outcomes.
func (o *Orchestrator) handleTerminal(status transform.JobStatus) error {
	switch status {
	case transform.StatusCompleted:
		o.register.MarkPhase(constants.PhaseTransformCode, constants.PhaseStatusSucceeded)
		return o.register.Finish(constants.JobStatusSucceeded, "remote status "+status.String())

	case transform.StatusPartiallyCompleted:
		o.register.MarkPhase(constants.PhaseTransformCode, constants.PhaseStatusSucceeded)
		return o.register.Finish(constants.JobStatusPartiallySucceeded, "remote status "+status.String())

	default:
		err := transmuteerrors.Wrapf(transmuteerrors.ErrUnexpectedTerminalStatus, "remote status %s", status)
		return o.fail(err, unexpectedTerminalFailure(status))
	}
}

// fail is the single failure handler: log first, then record failure context
// and flip the status, unless the job was already cancelled, in which case
// the cancellation outcome stands and no generic failure is recorded.
// The causal error text always lands in the failure metadata so the outcome
// notice can carry it alongside the phase template.
func (o *Orchestrator) fail(cause error, fc failureContext, metadata ...string) error {
	o.logger.Error().Err(cause).Msg("Transformation job failed")

	if o.register.Cancelled() || transmuteerrors.Is(cause, transmuteerrors.ErrJobCancelled) {
		return transmuteerrors.ErrJobCancelled
	}

	o.register.AppendFailure(fc.notification, fc.chatMessage, append([]string{cause.Error()}, metadata...)...)
	if err := o.register.Finish(constants.JobStatusFailed, cause.Error()); err != nil {
		o.logger.Warn().Err(err).Msg("Could not record failed status")
	}
	return cause
}

// finalize runs unconditionally at job end: force still-pending phases to
// failed, emit exactly one outcome notice plus the chat message, delete the
// payload archive, persist the record, and report total latency.
func (o *Orchestrator) finalize() {
	// A run that escaped without setting a terminal status is a failure.
	if o.register.Running() {
		if err := o.register.Finish(constants.JobStatusFailed, "finalized while running"); err != nil {
			o.logger.Warn().Err(err).Msg("Could not finalize job status")
		}
	}

	o.register.ForcePendingPhasesFailed()
	snap := o.register.Snapshot()

	notice, chat := outcomeNotice(snap)
	o.surface.Notice(notice)
	if chat != "" {
		o.surface.ChatMessage(chat)
	}
	if snap.Status == constants.JobStatusSucceeded || snap.Status == constants.JobStatusPartiallySucceeded {
		o.surface.RevealReview(snap.ProjectPath)
	}

	if snap.PayloadPath != "" {
		if err := os.Remove(snap.PayloadPath); err != nil && !os.IsNotExist(err) {
			o.logger.Warn().Err(err).Str("payload_path", snap.PayloadPath).Msg("Failed to delete payload")
		}
	}

	if o.store != nil {
		recordID := GenerateRecordID(snap.StartedAt)
		if err := o.store.Save(context.Background(), recordID, snap); err != nil {
			o.logger.Warn().Err(err).Str("record_id", recordID).Msg("Failed to persist job record")
		}
	}

	o.telemetry.JobFinished(snap.ID, snap.Status, snap.Elapsed())
	o.logger.Info().
		Str("job_id", snap.ID).
		Str("status", snap.Status.String()).
		Dur("elapsed", snap.Elapsed()).
		Msg("Transformation job finished")
}

// progressLoop asks the surface to refresh plan progress at a fixed interval
// until finalize stops it.
func (o *Orchestrator) progressLoop(ctx context.Context) {
	ticker := time.NewTicker(o.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.surface.RefreshPlanProgress(o.register.Snapshot())
		}
	}
}

// resetWorkDir clears and recreates the job working directory.
func (o *Orchestrator) resetWorkDir() error {
	if err := os.RemoveAll(o.workDir); err != nil {
		return transmuteerrors.Wrap(err, "failed to reset work directory")
	}
	if err := os.MkdirAll(o.workDir, 0o750); err != nil {
		return transmuteerrors.Wrap(err, "failed to create work directory")
	}
	return nil
}
