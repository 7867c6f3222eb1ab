package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/transmute/internal/job"
)

// AddHistoryCommand adds the history command to the root command.
func AddHistoryCommand(root *cobra.Command) {
	root.AddCommand(newHistoryCmd())
}

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transformation jobs",
		Long:  `History lists persisted job records, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := getTransmuteHome()
			if err != nil {
				return err
			}
			store, err := job.NewFileStore(home)
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs have been run yet.")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tSTATUS\tPROJECT\tSTARTED\tDURATION")
			for _, record := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					recordTitle(record),
					record.Status,
					record.ProjectPath,
					record.StartedAt.Local().Format(time.RFC3339),
					record.Elapsed().Round(time.Second),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many records (0 = all)")

	return cmd
}
