package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/transmute/internal/config"
	"github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/job"
	"github.com/mrz1836/transmute/internal/maven"
	"github.com/mrz1836/transmute/internal/packager"
	"github.com/mrz1836/transmute/internal/signal"
	"github.com/mrz1836/transmute/internal/surface"
	"github.com/mrz1836/transmute/internal/telemetry"
	"github.com/mrz1836/transmute/internal/transform"
)

// AddStartCommand adds the start command to the root command.
func AddStartCommand(root *cobra.Command) {
	root.AddCommand(newStartCmd())
}

// startOptions contains all options for the start command.
type startOptions struct {
	endpoint     string
	workDir      string
	pollInterval time.Duration
	noBell       bool
}

// newStartCmd creates the start command.
func newStartCmd() *cobra.Command {
	var (
		endpoint     string
		workDir      string
		pollInterval time.Duration
		noBell       bool
	)

	cmd := &cobra.Command{
		Use:   "start [project-path]",
		Short: "Start a transformation job for a Maven project",
		Long: `Start packages the project and its resolved dependencies, uploads the
archive to the transformation service, and drives the remote job until it
reaches a terminal state.

While the job runs, plan progress is refreshed on the terminal. If the job
pauses for a dependency-version decision, an interactive picker is shown;
press Ctrl+C at any time to cancel the job.

Examples:
  transmute start
  transmute start ./payments-service
  transmute start --endpoint https://transform.example.com
  transmute start --poll-interval 10s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := "."
			if len(args) == 1 {
				projectPath = args[0]
			}
			opts := startOptions{
				endpoint:     endpoint,
				workDir:      workDir,
				pollInterval: pollInterval,
				noBell:       noBell,
			}
			return runStart(cmd.Context(), cmd, projectPath, opts)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "transformation service base URL (overrides config)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "job working directory (overrides config)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "remote status poll interval (overrides config)")
	cmd.Flags().BoolVar(&noBell, "no-bell", false, "disable the terminal bell on job completion")

	return cmd
}

// runStart loads configuration, wires the orchestrator, and drives the job
// to completion. The returned error maps to the process exit code.
func runStart(ctx context.Context, cmd *cobra.Command, projectPath string, opts startOptions) error {
	logger := GetLogger()

	projectPath, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(projectPath, "pom.xml")); err != nil {
		return fmt.Errorf("%s: %w", projectPath, errors.ErrNotInProjectDir)
	}

	cfg, err := config.LoadWithOverrides(ctx, &config.Config{
		Service: config.ServiceConfig{Endpoint: opts.endpoint},
		Job: config.JobConfig{
			PollInterval: opts.pollInterval,
			WorkDir:      opts.workDir,
		},
	})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("no-bell") {
		cfg.Notifications.Bell = !opts.noBell
	}
	if cfg.Service.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is not set (use --endpoint, service.endpoint in config, or TRANSMUTE_SERVICE_ENDPOINT)",
			errors.ErrConfigInvalidService)
	}

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	// Record this process as the runner so sibling transmute processes can
	// cancel the job or answer a pending version choice.
	if err := writeRunState(projectPath); err != nil {
		logger.Warn().Err(err).Msg("job coordination files unavailable; cancel/choose from other terminals disabled")
	}
	defer clearRunState()

	h := signal.NewHandler(ctx)
	defer h.Stop()

	watchCtx, stopWatchers := context.WithCancel(ctx)
	defer stopWatchers()
	go watchChoiceDrop(watchCtx, orch, logger)
	go func() {
		select {
		case <-h.Interrupted():
			// The orchestrator owns cleanup; a fresh context keeps the
			// best-effort remote stop request alive.
			_ = orch.Cancel(context.Background(), "interrupted by user")
		case <-watchCtx.Done():
		}
	}()

	if err := orch.Start(ctx, projectPath); err != nil {
		if errors.Is(err, errors.ErrJobCancelled) {
			logger.Info().Msg("job cancelled")
			return nil
		}
		return err
	}
	return nil
}

// buildOrchestrator wires the orchestrator and its collaborators from config.
func buildOrchestrator(cfg *config.Config, logger zerolog.Logger) (*job.Orchestrator, error) {
	runner := maven.NewRunner(cfg.Maven.Command, cfg.Maven.Timeout, logger)
	probe := maven.NewProbe(runner, logger)
	pkg := packager.NewZipPackager(runner, logger)

	emitter := telemetry.NewLogEmitter(logger)

	service := transform.NewClient(cfg.Service.Endpoint, logger,
		transform.WithAuthToken(cfg.AuthToken()),
		transform.WithTelemetry(emitter),
		transform.WithHTTPClient(httpClientWithTimeout(cfg.Service.Timeout)),
		transform.WithTransferClient(httpClientWithTimeout(cfg.Service.TransferTimeout)),
	)

	console := surface.NewConsole(logger, surface.WithBell(cfg.Notifications.Bell))

	home, err := getTransmuteHome()
	if err != nil {
		return nil, err
	}
	store, err := job.NewFileStore(home)
	if err != nil {
		return nil, err
	}

	return job.NewOrchestrator(service, pkg, probe, console, logger,
		job.WithTelemetry(emitter),
		job.WithStore(store),
		job.WithWorkDir(cfg.WorkDir()),
		job.WithPollInterval(cfg.Job.PollInterval),
		job.WithProgressInterval(cfg.Job.ProgressInterval),
	), nil
}

// httpClientWithTimeout returns an http.Client with the given timeout, or
// nil when the timeout is unset so the transform client keeps its default.
func httpClientWithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: timeout}
}
