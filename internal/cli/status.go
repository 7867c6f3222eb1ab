package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/transmute/internal/domain"
	"github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/job"
	"github.com/mrz1836/transmute/internal/surface"
)

// Output formats supported by the status command.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command) {
	root.AddCommand(newStatusCmd())
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current or most recent transformation job",
		Long: `Status reports whether a job is currently running and shows the most
recent job record with its per-phase progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			state, stateErr := readRunState()
			if stateErr != nil && !errors.Is(stateErr, errors.ErrJobNotRunning) {
				return stateErr
			}

			latest, err := latestRecord(cmd)
			if err != nil && !errors.Is(err, errors.ErrJobNotFound) {
				return err
			}

			switch output {
			case outputText:
				return printStatusText(out, state, latest)
			case outputJSON, outputYAML:
				return printStatusStructured(out, output, state, latest)
			default:
				return errors.Wrapf(errors.ErrInvalidOutputFormat,
					"--output must be %s, %s or %s, got %q", outputText, outputJSON, outputYAML, output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")

	return cmd
}

// printStatusText renders the human-readable status report.
func printStatusText(out io.Writer, state *runState, latest *domain.Job) error {
	if state != nil {
		fmt.Fprintf(out, "A job is running (pid %d) for %s, started %s.\n",
			state.PID, state.ProjectPath, state.StartedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "No job is running.")
	}

	if latest == nil {
		return nil
	}

	fmt.Fprintf(out, "\nLast job: %s (%s)\n", recordTitle(latest), latest.Status)
	console := surface.NewConsole(GetLogger(), surface.WithWriter(out), surface.WithBell(false))
	console.RefreshPlanProgress(*latest)
	if latest.FailureNotification != "" {
		fmt.Fprintf(out, "\n%s\n", latest.FailureNotification)
	}
	return nil
}

// statusReport is the machine-readable status payload.
type statusReport struct {
	Running   bool        `json:"running"`
	Runner    *runState   `json:"runner,omitempty"`
	LatestJob *domain.Job `json:"latest_job,omitempty"`
}

// printStatusStructured renders the status report as JSON or YAML.
func printStatusStructured(out io.Writer, format string, state *runState, latest *domain.Job) error {
	report := statusReport{Running: state != nil, Runner: state, LatestJob: latest}

	if format == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "failed to encode status")
	}

	// Round-trip through JSON so the YAML keys follow the json tags the rest
	// of the tooling already emits.
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to encode status")
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return errors.Wrap(err, "failed to encode status")
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return errors.Wrap(err, "failed to encode status")
	}
	_, err = out.Write(data)
	return errors.Wrap(err, "failed to write status")
}

// latestRecord returns the most recent persisted job record, or
// ErrJobNotFound when no job has ever been recorded.
func latestRecord(cmd *cobra.Command) (*domain.Job, error) {
	home, err := getTransmuteHome()
	if err != nil {
		return nil, err
	}
	store, err := job.NewFileStore(home)
	if err != nil {
		return nil, err
	}
	records, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.ErrJobNotFound
	}
	return records[0], nil
}

// recordTitle produces a short human label for a job record.
func recordTitle(record *domain.Job) string {
	if record.ID != "" {
		return record.ID
	}
	return record.ProjectPath
}
