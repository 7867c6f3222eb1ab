package job

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/maven"
	"github.com/mrz1836/transmute/internal/packager"
	"github.com/mrz1836/transmute/internal/surface"
	"github.com/mrz1836/transmute/internal/telemetry"
	"github.com/mrz1836/transmute/internal/transform"
)

// VersionProber finds candidate replacement versions for a dependency using
// a locally rewritten descriptor. Implemented by maven.Probe.
type VersionProber interface {
	CandidateVersions(ctx context.Context, descriptorPath, probeDir string, dep domain.Dependency) ([]string, error)
}

// choiceOutcome is what arrives on the one-shot choice channel: either a
// chosen version or the reason no version was chosen.
type choiceOutcome struct {
	version string
	err     error
}

// pendingChoice is the armed one-shot channel for the current cycle.
type pendingChoice struct {
	session *domain.HILSession
	ch      chan choiceOutcome
	once    sync.Once
}

func (p *pendingChoice) deliver(out choiceOutcome) {
	p.once.Do(func() { p.ch <- out })
}

// HILController runs one human-in-the-loop cycle for a paused job: locate
// the artifact carrying the dependency question, download and unpack it,
// probe for candidate replacement versions, then suspend on a one-shot
// choice channel until SubmitChoice completes it or the job is cancelled.
//
// Every failure funnels through a single short-circuit path that resumes the
// remote job with REJECTED before the error propagates. The remote job is
// never left paused.
type HILController struct {
	service   transform.Service
	register  *Register
	packager  packager.Packager
	probe     VersionProber
	surface   surface.Surface
	telemetry telemetry.Emitter
	workDir   string
	logger    zerolog.Logger

	// rewriteVersion rewrites the descriptor's dependency version. Swappable
	// for tests; defaults to maven.SetDependencyVersion.
	rewriteVersion func(pomPath string, dep domain.Dependency, newVersion string) error

	mu      sync.Mutex
	pending *pendingChoice
}

// NewHILController creates a HILController. workDir is the job working
// directory the session temp dirs are created under.
func NewHILController(
	service transform.Service,
	register *Register,
	pkg packager.Packager,
	probe VersionProber,
	surf surface.Surface,
	emitter telemetry.Emitter,
	workDir string,
	logger zerolog.Logger,
) *HILController {
	if emitter == nil {
		emitter = telemetry.Noop{}
	}
	return &HILController{
		service:        service,
		register:       register,
		packager:       pkg,
		probe:          probe,
		surface:        surf,
		telemetry:      emitter,
		workDir:        workDir,
		logger:         logger.With().Str("component", "hil_controller").Logger(),
		rewriteVersion: maven.SetDependencyVersion,
	}
}

// Run executes one cycle for the paused job. Returns nil when the cycle
// resolved (remote job resumed with COMPLETED); otherwise the cause after
// the short-circuit resume, or ErrJobCancelled when the containing job was
// cancelled while waiting.
func (c *HILController) Run(ctx context.Context, jobID string) error {
	c.telemetry.HILEntered(jobID)
	result := telemetry.HILResultShortCircuited
	defer func() { c.telemetry.HILExited(jobID, result) }()

	session, err := c.prepare(ctx, jobID)
	if err != nil {
		return c.shortCircuit(ctx, jobID, err)
	}
	defer c.cleanup(session)

	pending := c.arm(session)
	defer c.disarm()

	// The surface prompt runs concurrently so headless runs can still be
	// completed by an external SubmitChoice call.
	go c.promptUser(pending)

	c.logger.Info().
		Str("job_id", jobID).
		Str("dependency", session.Dependency.Coordinates()).
		Int("candidates", len(session.Candidates)).
		Msg("Waiting for version choice")

	select {
	case <-ctx.Done():
		result = telemetry.HILResultCancelled
		return c.shortCircuit(ctx, jobID, ctx.Err())
	case <-c.register.CancelSignal():
		// The cancel entry point stops the remote job; no resume here.
		result = telemetry.HILResultCancelled
		return transmuteerrors.ErrJobCancelled
	case outcome := <-pending.ch:
		if outcome.err != nil {
			return c.shortCircuit(ctx, jobID, outcome.err)
		}
		if err = c.apply(ctx, session, outcome.version); err != nil {
			return c.shortCircuit(ctx, jobID, err)
		}
		result = telemetry.HILResultResolved
		c.telemetry.JobResumed(jobID, transform.ResumeCompleted)
		return nil
	}
}

// SubmitChoice completes the pending cycle with the chosen version. Returns
// ErrNoPendingChoice when no cycle is waiting.
func (c *HILController) SubmitChoice(version string) error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return transmuteerrors.ErrNoPendingChoice
	}
	pending.deliver(choiceOutcome{version: version})
	return nil
}

// RejectChoice completes the pending cycle with a user rejection, sending
// the remote job down the REJECTED resume path.
func (c *HILController) RejectChoice() error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return transmuteerrors.ErrNoPendingChoice
	}
	pending.deliver(choiceOutcome{err: transmuteerrors.ErrChoiceRejected})
	return nil
}

// Session returns the current cycle's session, or nil when none is waiting.
func (c *HILController) Session() *domain.HILSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	return c.pending.session
}

// prepare builds the session: fresh temp dirs, artifact location and
// download, and the candidate-version probe.
func (c *HILController) prepare(ctx context.Context, jobID string) (*domain.HILSession, error) {
	base := filepath.Join(c.workDir, "hil")

	// Temp state is fully reset per cycle
	if err := os.RemoveAll(base); err != nil {
		return nil, transmuteerrors.Wrap(err, "failed to reset session directory")
	}

	session := &domain.HILSession{
		JobID:       jobID,
		DownloadDir: filepath.Join(base, "download"),
		ProbeDir:    filepath.Join(base, "probe"),
		ChoiceDir:   filepath.Join(base, "choice"),
	}
	for _, dir := range []string{session.DownloadDir, session.ProbeDir, session.ChoiceDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, transmuteerrors.Wrap(err, "failed to create session directory")
		}
	}

	steps, err := c.service.GetSteps(ctx, jobID)
	if err != nil {
		return nil, err
	}
	ref, err := locateHILArtifact(steps)
	if err != nil {
		return nil, err
	}
	session.ArtifactID = ref.ArtifactID

	artifact, err := c.service.DownloadArtifact(ctx, jobID, ref.ArtifactID, session.DownloadDir)
	if err != nil {
		return nil, err
	}
	session.DescriptorPath = artifact.DescriptorPath
	session.Dependency = domain.Dependency{
		GroupID:    artifact.Manifest.PomGroupID,
		ArtifactID: artifact.Manifest.PomArtifactID,
		Version:    artifact.Manifest.SourcePomVersion,
	}

	session.Candidates, err = c.probe.CandidateVersions(ctx, session.DescriptorPath, session.ProbeDir, session.Dependency)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// apply carries out the user's choice: rewrite the descriptor copy, resolve
// the rewritten descriptor's dependencies into a fresh folder, package and
// upload them as a dependency-only payload, then resume with COMPLETED.
func (c *HILController) apply(ctx context.Context, session *domain.HILSession, version string) error {
	if err := c.rewriteVersion(session.DescriptorPath, session.Dependency, version); err != nil {
		return err
	}

	// The rewritten descriptor forms a minimal project the build tool can
	// resolve the chosen version from.
	stageDir := filepath.Join(session.ChoiceDir, "project")
	depsDir := filepath.Join(session.ChoiceDir, constants.DependenciesDir)
	if err := os.MkdirAll(stageDir, 0o750); err != nil {
		return transmuteerrors.Wrap(err, "failed to stage descriptor")
	}
	raw, err := os.ReadFile(session.DescriptorPath) //nolint:gosec // session path under our work dir
	if err != nil {
		return transmuteerrors.Wrap(err, "failed to read rewritten descriptor")
	}
	if err = os.WriteFile(filepath.Join(stageDir, "pom.xml"), raw, 0o600); err != nil {
		return transmuteerrors.Wrap(err, "failed to stage descriptor")
	}

	if err = c.packager.PrepareDependencies(ctx, stageDir, depsDir); err != nil {
		return err
	}

	payloadPath, err := c.packager.PackageDependencies(ctx, depsDir, session.ChoiceDir)
	if err != nil {
		return err
	}

	target, err := c.service.CreateUploadURL(ctx)
	if err != nil {
		return err
	}
	if err = c.service.UploadPayload(ctx, payloadPath, target, transform.UploadContextDependencies); err != nil {
		return err
	}

	return c.service.ResumeJob(ctx, session.JobID, transform.ResumeCompleted)
}

// shortCircuit resumes the remote job with REJECTED and re-raises cause.
// The resume uses a detached context so an expired ctx cannot leave the
// remote job paused; a resume failure is logged and joined to the cause.
func (c *HILController) shortCircuit(ctx context.Context, jobID string, cause error) error {
	resumeCtx := context.WithoutCancel(ctx)
	if err := c.service.ResumeJob(resumeCtx, jobID, transform.ResumeRejected); err != nil {
		c.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Msg("Short-circuit resume failed")
	} else {
		c.telemetry.JobResumed(jobID, transform.ResumeRejected)
	}
	c.logger.Warn().
		Err(cause).
		Str("job_id", jobID).
		Msg("Human-in-the-loop cycle short-circuited")
	return cause
}

// promptUser drives the interactive surface prompt for the cycle. A
// canceled menu (non-interactive run) leaves the choice pending so an
// external SubmitChoice can still complete it.
func (c *HILController) promptUser(pending *pendingChoice) {
	session := pending.session
	version, err := c.surface.PromptVersionChoice(session.Dependency, session.Candidates)
	if err != nil {
		if transmuteerrors.Is(err, transmuteerrors.ErrMenuCanceled) {
			return
		}
		pending.deliver(choiceOutcome{err: err})
		return
	}
	pending.deliver(choiceOutcome{version: version})
}

func (c *HILController) arm(session *domain.HILSession) *pendingChoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &pendingChoice{
		session: session,
		ch:      make(chan choiceOutcome, 1),
	}
	return c.pending
}

func (c *HILController) disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// cleanup removes the session temp dirs unconditionally.
func (c *HILController) cleanup(session *domain.HILSession) {
	for _, dir := range []string{session.DownloadDir, session.ProbeDir, session.ChoiceDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to remove session directory")
		}
	}
}

// locateHILArtifact finds the step artifact reference carrying the
// human-in-the-loop dependency question.
func locateHILArtifact(steps []transform.Step) (*transform.StepArtifact, error) {
	var found *transform.StepArtifact
	for i := range steps {
		artifact := steps[i].Artifact
		if artifact == nil {
			continue
		}
		if artifact.ArtifactType == transform.ArtifactTypeHILDependency {
			found = artifact
			break
		}
		if found == nil {
			found = artifact
		}
	}
	if found == nil {
		return nil, transmuteerrors.ErrNoHILArtifact
	}
	if found.ArtifactID == "" || found.ArtifactType == "" {
		return nil, transmuteerrors.ErrMissingHILFields
	}
	return found, nil
}
