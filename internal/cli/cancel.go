package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/transmute/internal/errors"
)

// AddCancelCommand adds the cancel command to the root command.
func AddCancelCommand(root *cobra.Command) {
	root.AddCommand(newCancelCmd())
}

// newCancelCmd creates the cancel command.
func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running transformation job",
		Long: `Cancel asks the process driving the current job to stop it. The job is
marked cancelled locally and the remote service is asked to stop it; failure
to stop remotely is reported but does not change the local outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()

			state, err := readRunState()
			if err != nil {
				if errors.Is(err, errors.ErrJobNotRunning) {
					return errors.ErrJobNotRunning
				}
				return err
			}

			if err := interruptRunner(state); err != nil {
				return fmt.Errorf("cancel request failed: %w", err)
			}

			logger.Info().Int("pid", state.PID).Str("project_path", state.ProjectPath).
				Msg("cancellation requested")
			fmt.Fprintln(cmd.OutOrStdout(), "Cancellation requested; the job will finish unwinding shortly.")
			return nil
		},
	}
}
