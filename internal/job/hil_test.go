package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/surface"
	"github.com/mrz1836/transmute/internal/telemetry"
	"github.com/mrz1836/transmute/internal/testutil"
	"github.com/mrz1836/transmute/internal/transform"
)

type hilFixture struct {
	controller *HILController
	service    *fakeService
	register   *Register
	surface    *surface.Recorder
	telemetry  *telemetry.Recorder
	workDir    string
}

func newHILFixture(t *testing.T) *hilFixture {
	t.Helper()

	service := newFakeService()
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	surf := surface.NewRecorder()
	emitter := &telemetry.Recorder{}
	workDir := t.TempDir()

	controller := NewHILController(
		service, register, &fakePackager{}, &fakeProbe{candidates: []string{"2.0.0", "1.5.0"}},
		surf, emitter, workDir, zerolog.Nop(),
	)

	return &hilFixture{
		controller: controller,
		service:    service,
		register:   register,
		surface:    surf,
		telemetry:  emitter,
		workDir:    workDir,
	}
}

// waitForPending blocks until the controller has an armed choice.
func waitForPending(t *testing.T, c *HILController) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Session() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no pending choice appeared")
}

func TestHILController_ResolvedViaPrompt(t *testing.T) {
	f := newHILFixture(t)
	f.surface.ChoiceErr = nil
	f.surface.ChoiceResponse = "2.0.0"

	err := f.controller.Run(context.Background(), "job-123")
	require.NoError(t, err)

	assert.Equal(t, []string{transform.ResumeCompleted}, f.service.recordedResumes())

	uploads := f.service.recordedUploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, transform.UploadContextDependencies, uploads[0].uploadContext)

	// The prompt offered the manifest's dependency and the probe's candidates
	require.Len(t, f.surface.PromptedDeps, 1)
	assert.Equal(t, "org.example:widget", f.surface.PromptedDeps[0].Coordinates())
	assert.Equal(t, []string{"2.0.0", "1.5.0"}, f.surface.PromptedCandidates[0])

	exited := f.telemetry.ByType("hil_exited")
	require.Len(t, exited, 1)
	assert.Equal(t, telemetry.HILResultResolved, exited[0].Outcome)

	// Session temp state is removed unconditionally
	_, statErr := os.Stat(filepath.Join(f.workDir, "hil", "download"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHILController_ResolvedViaExternalSubmit(t *testing.T) {
	f := newHILFixture(t)
	// Default recorder declines the prompt like a non-interactive terminal,
	// leaving the choice pending for an external submit.

	done := make(chan error, 1)
	go func() { done <- f.controller.Run(context.Background(), "job-123") }()

	waitForPending(t, f.controller)
	require.NoError(t, f.controller.SubmitChoice("1.5.0"))

	require.NoError(t, <-done)
	assert.Equal(t, []string{transform.ResumeCompleted}, f.service.recordedResumes())
}

func TestHILController_UserRejection(t *testing.T) {
	f := newHILFixture(t)

	done := make(chan error, 1)
	go func() { done <- f.controller.Run(context.Background(), "job-123") }()

	waitForPending(t, f.controller)
	require.NoError(t, f.controller.RejectChoice())

	err := <-done
	require.ErrorIs(t, err, transmuteerrors.ErrChoiceRejected)
	assert.Equal(t, []string{transform.ResumeRejected}, f.service.recordedResumes())
}

// A cycle with no candidate versions never prompts: it resumes the remote
// job with REJECTED and reports the cause.
func TestHILController_NoCandidateVersions(t *testing.T) {
	f := newHILFixture(t)
	f.controller.probe = &fakeProbe{err: transmuteerrors.ErrNoCandidateVersions}

	err := f.controller.Run(context.Background(), "job-123")

	require.ErrorIs(t, err, transmuteerrors.ErrNoCandidateVersions)
	assert.Equal(t, []string{transform.ResumeRejected}, f.service.recordedResumes())
	assert.Empty(t, f.surface.PromptedDeps)

	exited := f.telemetry.ByType("hil_exited")
	require.Len(t, exited, 1)
	assert.Equal(t, telemetry.HILResultShortCircuited, exited[0].Outcome)
}

func TestHILController_StepFetchFailureShortCircuits(t *testing.T) {
	f := newHILFixture(t)
	f.service.stepsErr = testutil.ErrMockService

	err := f.controller.Run(context.Background(), "job-123")

	require.ErrorIs(t, err, testutil.ErrMockService)
	assert.Equal(t, []string{transform.ResumeRejected}, f.service.recordedResumes())
}

// A failure while applying a submitted choice still resumes the remote job
// with REJECTED before the error propagates.
func TestHILController_ApplyFailureShortCircuits(t *testing.T) {
	f := newHILFixture(t)
	f.surface.ChoiceErr = nil
	f.surface.ChoiceResponse = "2.0.0"
	f.controller.packager = &fakePackager{prepareErr: testutil.ErrMockService}

	err := f.controller.Run(context.Background(), "job-123")

	require.ErrorIs(t, err, testutil.ErrMockService)
	assert.Equal(t, []string{transform.ResumeRejected}, f.service.recordedResumes())
	assert.Empty(t, f.service.recordedUploads(), "no dependency payload reaches the service")

	exited := f.telemetry.ByType("hil_exited")
	require.Len(t, exited, 1)
	assert.Equal(t, telemetry.HILResultShortCircuited, exited[0].Outcome)
}

// Cancellation during the wait returns without resuming: the cancel entry
// point already stops the remote job.
func TestHILController_CancelDuringWait(t *testing.T) {
	f := newHILFixture(t)

	done := make(chan error, 1)
	go func() { done <- f.controller.Run(context.Background(), "job-123") }()

	waitForPending(t, f.controller)
	require.NoError(t, f.register.Cancel("user request"))

	err := <-done
	require.ErrorIs(t, err, transmuteerrors.ErrJobCancelled)
	assert.Empty(t, f.service.recordedResumes())

	exited := f.telemetry.ByType("hil_exited")
	require.Len(t, exited, 1)
	assert.Equal(t, telemetry.HILResultCancelled, exited[0].Outcome)
}

func TestHILController_SubmitChoiceWithoutPending(t *testing.T) {
	f := newHILFixture(t)
	require.ErrorIs(t, f.controller.SubmitChoice("2.0.0"), transmuteerrors.ErrNoPendingChoice)
	require.ErrorIs(t, f.controller.RejectChoice(), transmuteerrors.ErrNoPendingChoice)
}

func TestLocateHILArtifact(t *testing.T) {
	hilArtifact := &transform.StepArtifact{ArtifactID: "a-1", ArtifactType: transform.ArtifactTypeHILDependency}
	otherArtifact := &transform.StepArtifact{ArtifactID: "a-2", ArtifactType: "report"}

	tests := []struct {
		name    string
		steps   []transform.Step
		want    string
		wantErr error
	}{
		{
			name:  "prefers the dependency artifact",
			steps: []transform.Step{{Artifact: otherArtifact}, {Artifact: hilArtifact}},
			want:  "a-1",
		},
		{
			name:  "falls back to the first artifact",
			steps: []transform.Step{{}, {Artifact: otherArtifact}},
			want:  "a-2",
		},
		{
			name:    "no artifacts",
			steps:   []transform.Step{{}, {}},
			wantErr: transmuteerrors.ErrNoHILArtifact,
		},
		{
			name:    "missing fields",
			steps:   []transform.Step{{Artifact: &transform.StepArtifact{ArtifactType: transform.ArtifactTypeHILDependency}}},
			wantErr: transmuteerrors.ErrMissingHILFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := locateHILArtifact(tt.steps)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, found.ArtifactID)
		})
	}
}
