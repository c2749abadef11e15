package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListSyncRuns(ctx, limit)
			if err != nil {
				return err
			}

			for _, run := range runs {
				completed := "-"
				if run.CompletedAt != nil {
					completed = run.CompletedAt.Format("2006-01-02 15:04:05")
				}
				line := fmt.Sprintf("%-12s %-14s %-11s started=%s completed=%s added=%d updated=%d",
					run.Institution, run.SyncType, run.Status,
					run.StartedAt.Format("2006-01-02 15:04:05"), completed,
					run.RecordsAdded, run.RecordsUpdated)
				if run.ErrorMessage != nil {
					line += " error=" + *run.ErrorMessage
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")

	return cmd
}
