package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/tui"
)

// AddPlanCommand adds the plan command to the root command.
func AddPlanCommand(root *cobra.Command) {
	root.AddCommand(newPlanCmd())
}

// newPlanCmd creates the plan command.
func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the transformation plan of the most recent job",
		Long: `Plan renders the plan text the transformation service produced for the
most recent job. The plan is fetched once the remote job finishes planning
and kept with the job record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := latestRecord(cmd)
			if err != nil {
				if errors.Is(err, errors.ErrJobNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "No job has been run yet.")
					return nil
				}
				return err
			}
			if record.PlanPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "The most recent job has no plan; it ended before planning finished.")
				return nil
			}

			content, err := os.ReadFile(record.PlanPath)
			if err != nil {
				return fmt.Errorf("failed to read plan %s: %w", record.PlanPath, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(string(content)))
			return nil
		},
	}
}
