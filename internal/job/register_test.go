package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/transmute/internal/clock"
	"github.com/mrz1836/transmute/internal/constants"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

func TestRegister_BeginStartsFreshJob(t *testing.T) {
	fixed := clock.FixedClock{Time: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
	r := NewRegister(fixed)

	require.NoError(t, r.Begin("/home/dev/payments-service"))

	snap := r.Snapshot()
	assert.Equal(t, constants.JobStatusRunning, snap.Status)
	assert.Equal(t, "/home/dev/payments-service", snap.ProjectPath)
	assert.Equal(t, fixed.Time, snap.StartedAt)
	assert.Nil(t, snap.FinishedAt)
	assert.True(t, r.Running())

	require.Len(t, snap.PlanStepProgress, len(constants.OrderedPhases))
	for _, phase := range constants.OrderedPhases {
		assert.Equal(t, constants.PhaseStatusPending, snap.PlanStepProgress[phase], "phase %s", phase)
	}
}

func TestRegister_BeginWhileRunningRejected(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))

	err := r.Begin("/other-project")
	require.ErrorIs(t, err, transmuteerrors.ErrJobAlreadyRunning)
	assert.Equal(t, "/project", r.Snapshot().ProjectPath)
}

func TestRegister_BeginAfterTerminalResetsTransientState(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))
	r.SetJobID("job-1")
	r.SetPayloadPath("/tmp/payload.zip")
	r.AppendFailure("boom", "it broke", "detail")
	require.NoError(t, r.Finish(constants.JobStatusFailed, "boom"))

	require.NoError(t, r.Begin("/project"))

	snap := r.Snapshot()
	assert.Empty(t, snap.ID)
	assert.Empty(t, snap.PayloadPath)
	assert.Empty(t, snap.FailureNotification)
	assert.Empty(t, snap.FailureChatMessage)
	assert.Empty(t, snap.FailureMetadata)
	assert.Nil(t, snap.FinishedAt)

	// The audit trail survives restarts
	require.Len(t, snap.Transitions, 3)
	assert.Equal(t, constants.JobStatusFailed, snap.Transitions[2].FromStatus)
	assert.Equal(t, constants.JobStatusRunning, snap.Transitions[2].ToStatus)
}

func TestRegister_CancelFlipsStatusAndSignals(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))
	sig := r.CancelSignal()

	require.NoError(t, r.Cancel("user request"))

	assert.True(t, r.Cancelled())
	assert.Equal(t, constants.JobStatusCancelled, r.Snapshot().Status)
	select {
	case <-sig:
	default:
		t.Fatal("cancel signal channel should be closed")
	}
}

func TestRegister_CancelWhenIdle(t *testing.T) {
	r := NewRegister(nil)
	require.ErrorIs(t, r.Cancel("nothing running"), transmuteerrors.ErrJobNotRunning)
}

func TestRegister_BeginLowersCancelFlag(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))
	require.NoError(t, r.Cancel("user request"))

	require.NoError(t, r.Begin("/project"))

	assert.False(t, r.Cancelled())
	select {
	case <-r.CancelSignal():
		t.Fatal("new job must get a fresh cancel signal channel")
	default:
	}
}

func TestRegister_AppendFailureAccumulates(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))

	r.AppendFailure("first notification", "first chat", "meta-1")
	r.AppendFailure("second notification", "second chat", "meta-2", "meta-3")
	r.AppendFailure("", "", "meta-4")

	snap := r.Snapshot()
	assert.Equal(t, "first notification\nsecond notification", snap.FailureNotification)
	assert.Equal(t, "first chat\nsecond chat", snap.FailureChatMessage)
	assert.Equal(t, []string{"meta-1", "meta-2", "meta-3", "meta-4"}, snap.FailureMetadata)
}

func TestRegister_ForcePendingPhasesFailed(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))
	r.MarkPhase(constants.PhaseStartJob, constants.PhaseStatusSucceeded)

	r.ForcePendingPhasesFailed()

	snap := r.Snapshot()
	assert.Equal(t, constants.PhaseStatusSucceeded, snap.PlanStepProgress[constants.PhaseStartJob])
	assert.Equal(t, constants.PhaseStatusFailed, snap.PlanStepProgress[constants.PhaseBuildCode])
	assert.Equal(t, constants.PhaseStatusFailed, snap.PlanStepProgress[constants.PhaseGeneratePlan])
	assert.Equal(t, constants.PhaseStatusFailed, snap.PlanStepProgress[constants.PhaseTransformCode])
}

func TestRegister_SnapshotIsDeepCopy(t *testing.T) {
	r := NewRegister(nil)
	require.NoError(t, r.Begin("/project"))
	r.AppendFailure("note", "chat", "meta")

	snap := r.Snapshot()
	snap.PlanStepProgress[constants.PhaseStartJob] = constants.PhaseStatusSucceeded
	snap.FailureMetadata[0] = "mutated"
	snap.Transitions[0].Reason = "mutated"

	fresh := r.Snapshot()
	assert.Equal(t, constants.PhaseStatusPending, fresh.PlanStepProgress[constants.PhaseStartJob])
	assert.Equal(t, []string{"meta"}, fresh.FailureMetadata)
	assert.Equal(t, "start", fresh.Transitions[0].Reason)
}
