package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/domain"
	"github.com/mrz1836/transmute/internal/job"
)

// saveTestRecord persists one finished job record under the temp home.
func saveTestRecord(t *testing.T, home string) domain.Job {
	t.Helper()

	store, err := job.NewFileStore(home)
	require.NoError(t, err)

	finished := time.Date(2026, 8, 29, 14, 32, 0, 0, time.UTC)
	record := domain.Job{
		ID:          "job-123",
		Status:      constants.JobStatusSucceeded,
		ProjectPath: "/home/dev/payments-service",
		PlanStepProgress: map[constants.Phase]constants.PhaseStatus{
			constants.PhaseStartJob:      constants.PhaseStatusSucceeded,
			constants.PhaseBuildCode:     constants.PhaseStatusSucceeded,
			constants.PhaseGeneratePlan:  constants.PhaseStatusSucceeded,
			constants.PhaseTransformCode: constants.PhaseStatusSucceeded,
		},
		StartedAt:  finished.Add(-2 * time.Minute),
		FinishedAt: &finished,
	}
	require.NoError(t, store.Save(context.Background(), "tjob-test", record))
	return record
}

// runStatus executes the status command with the given extra args.
func runStatus(t *testing.T, args ...string) string {
	t.Helper()

	cmd := newStatusCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestStatusCommand(t *testing.T) {
	t.Run("no runner and no history", func(t *testing.T) {
		useTempHome(t)

		out := runStatus(t)
		assert.Contains(t, out, "No job is running.")
		assert.NotContains(t, out, "Last job:")
	})

	t.Run("text output shows the last job", func(t *testing.T) {
		home := useTempHome(t)
		saveTestRecord(t, home)

		out := runStatus(t)
		assert.Contains(t, out, "Last job: job-123")
		assert.Contains(t, out, "succeeded")
	})

	t.Run("running job is reported", func(t *testing.T) {
		useTempHome(t)
		require.NoError(t, writeRunState("/home/dev/payments-service"))
		t.Cleanup(clearRunState)

		out := runStatus(t)
		assert.Contains(t, out, "A job is running")
		assert.Contains(t, out, "/home/dev/payments-service")
	})

	t.Run("json output is machine readable", func(t *testing.T) {
		home := useTempHome(t)
		saveTestRecord(t, home)

		out := runStatus(t, "--output", "json")
		assert.Contains(t, out, `"running": false`)
		assert.Contains(t, out, `"id": "job-123"`)
	})

	t.Run("yaml output uses json key names", func(t *testing.T) {
		home := useTempHome(t)
		saveTestRecord(t, home)

		out := runStatus(t, "--output", "yaml")
		assert.Contains(t, out, "running: false")
		assert.Contains(t, out, "project_path: /home/dev/payments-service")
	})

	t.Run("unknown format fails", func(t *testing.T) {
		useTempHome(t)

		cmd := newStatusCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--output", "xml"})

		err := cmd.ExecuteContext(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xml")
	})
}
