package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/transmute/internal/errors"
)

// AddChooseCommand adds the choose command to the root command.
func AddChooseCommand(root *cobra.Command) {
	root.AddCommand(newChooseCmd())
}

// newChooseCmd creates the choose command.
func newChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "choose <version>",
		Short: "Answer a pending dependency-version decision",
		Long: `Choose supplies the dependency version for a job paused on a
human-in-the-loop decision. It is intended for runs without a usable
terminal (CI, detached sessions) where the interactive picker cannot be
shown; the running transmute process picks the answer up within a second.

Example:
  transmute choose 2.17.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := args[0]
			if version == "" {
				return fmt.Errorf("%w: version must not be empty", errors.ErrNoPendingChoice)
			}

			if _, err := readRunState(); err != nil {
				return err
			}

			if err := writeChoiceDrop(version); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Version %s submitted; the running job will apply it shortly.\n", version)
			return nil
		},
	}
}
