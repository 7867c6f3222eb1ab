package job

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/testutil"
	"github.com/mrz1836/transmute/internal/transform"
)

func newTestPoller(service transform.Service, register *Register) *Poller {
	return NewPoller(service, register, time.Millisecond, zerolog.Nop())
}

func TestPoller_WaitReturnsAcceptedStatus(t *testing.T) {
	service := newFakeService(
		transform.StatusPreparing,
		transform.StatusPlanning,
		transform.StatusPlanned,
	)
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	status, err := newTestPoller(service, register).Wait(context.Background(), "job-123", transform.PlanReadySet())

	require.NoError(t, err)
	assert.Equal(t, transform.StatusPlanned, status)
}

// Paused returns immediately even when the accept set does not contain it,
// so the orchestrator can enter the human-in-the-loop controller from any
// waiting phase.
func TestPoller_WaitPausedReturnsImmediately(t *testing.T) {
	service := newFakeService(transform.StatusPaused)
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	status, err := newTestPoller(service, register).Wait(context.Background(), "job-123", transform.PlanReadySet())

	require.NoError(t, err)
	assert.Equal(t, transform.StatusPaused, status)
}

func TestPoller_WaitRetriesTransientReadErrors(t *testing.T) {
	service := newFakeService(transform.StatusCompleted)
	service.statusErrs = []error{testutil.ErrMockNetwork, testutil.ErrMockNetwork}
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	status, err := newTestPoller(service, register).Wait(context.Background(), "job-123", transform.TerminalSet())

	require.NoError(t, err)
	assert.Equal(t, transform.StatusCompleted, status)
}

func TestPoller_WaitObservesCancellation(t *testing.T) {
	service := newFakeService(transform.StatusTransforming)
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	done := make(chan error, 1)
	go func() {
		_, err := newTestPoller(service, register).Wait(context.Background(), "job-123", transform.TerminalSet())
		done <- err
	}()

	<-service.firstPoll
	require.NoError(t, register.Cancel("user request"))

	select {
	case err := <-done:
		require.ErrorIs(t, err, transmuteerrors.ErrJobCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not observe cancellation")
	}
}

func TestPoller_WaitHonorsContext(t *testing.T) {
	service := newFakeService(transform.StatusTransforming)
	register := NewRegister(nil)
	require.NoError(t, register.Begin("/project"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := newTestPoller(service, register).Wait(ctx, "job-123", transform.TerminalSet())
		done <- err
	}()

	<-service.firstPoll
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not observe context cancellation")
	}
}
