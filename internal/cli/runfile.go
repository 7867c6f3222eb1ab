package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/errors"
)

const (
	// runDirName is the directory under the transmute home that holds
	// per-process coordination files for the running job.
	runDirName = "run"

	// runFileName records the process currently driving a job. Its presence
	// lets sibling transmute processes find and signal the runner.
	runFileName = "current.json"

	// choiceFileName is the drop file a sibling `transmute choose` process
	// writes. The runner polls for it while a version choice is pending.
	choiceFileName = "choice.json"

	// choicePollInterval controls how often the runner checks the drop file.
	choicePollInterval = time.Second
)

// runState describes the process currently driving a transformation job.
type runState struct {
	PID         int       `json:"pid"`
	ProjectPath string    `json:"project_path"`
	StartedAt   time.Time `json:"started_at"`
}

// choiceDrop is the payload of the choice drop file.
type choiceDrop struct {
	Version string `json:"version"`
}

// runDir returns the coordination directory, creating it if needed.
func runDir() (string, error) {
	home, err := getTransmuteHome()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, runDirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// writeRunState records this process as the active job runner.
func writeRunState(projectPath string) error {
	dir, err := runDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(runState{
		PID:         os.Getpid(),
		ProjectPath: projectPath,
		StartedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, runFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// clearRunState removes the run state and any stale choice drop.
func clearRunState() {
	dir, err := runDir()
	if err != nil {
		return
	}
	_ = os.Remove(filepath.Join(dir, runFileName))
	_ = os.Remove(filepath.Join(dir, choiceFileName))
}

// readRunState returns the recorded runner, or ErrJobNotRunning when no
// live runner process exists. Stale records from crashed runners are cleaned
// up on read.
func readRunState() (*runState, error) {
	dir, err := runDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, runFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrJobNotRunning
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var state runState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode run state: %w", err)
	}

	if !processAlive(state.PID) {
		clearRunState()
		return nil, errors.ErrJobNotRunning
	}
	return &state, nil
}

// processAlive reports whether the given pid refers to a live process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 performs the existence check without delivering a signal.
	return proc.Signal(syscall.Signal(0)) == nil
}

// interruptRunner sends SIGINT to the recorded runner process. The runner's
// own signal handler converts this into a job cancellation so cleanup and
// the remote stop request still happen in the owning process.
func interruptRunner(state *runState) error {
	proc, err := os.FindProcess(state.PID)
	if err != nil {
		return fmt.Errorf("failed to find runner process %d: %w", state.PID, err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		return fmt.Errorf("failed to signal runner process %d: %w", state.PID, err)
	}
	return nil
}

// writeChoiceDrop records a version choice for the runner to pick up.
func writeChoiceDrop(version string) error {
	dir, err := runDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(choiceDrop{Version: version})
	if err != nil {
		return fmt.Errorf("failed to encode choice: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, choiceFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write choice: %w", err)
	}
	return nil
}

// choiceSubmitter accepts an externally supplied version choice. Satisfied by
// the job orchestrator.
type choiceSubmitter interface {
	SubmitChoice(version string) error
}

// watchChoiceDrop polls for a choice drop file while the job runs and feeds
// any dropped version into the orchestrator. This lets a sibling
// `transmute choose` process answer a pending version decision when the
// runner has no usable terminal. Runs until ctx is done.
func watchChoiceDrop(ctx context.Context, orch choiceSubmitter, logger zerolog.Logger) {
	dir, err := runDir()
	if err != nil {
		return
	}
	path := filepath.Join(dir, choiceFileName)

	ticker := time.NewTicker(choicePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_ = os.Remove(path)

		var drop choiceDrop
		if err := json.Unmarshal(data, &drop); err != nil || drop.Version == "" {
			logger.Warn().Msg("ignoring malformed choice drop")
			continue
		}

		if err := orch.SubmitChoice(drop.Version); err != nil {
			logger.Warn().Err(err).Str("version", drop.Version).
				Msg("dropped version choice could not be applied")
			continue
		}
		logger.Info().Str("version", drop.Version).Msg("applied dropped version choice")
	}
}
