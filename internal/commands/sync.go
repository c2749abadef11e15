package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/service"
)

// newSyncCommand reconciles a fetched batch file against the store. The file
// holds the JSON the scraping layer produces for one institution.
func newSyncCommand() *cobra.Command {
	var institution string

	cmd := &cobra.Command{
		Use:   "sync <batch-file>",
		Short: "Reconcile a fetched batch as one atomic sync run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading batch file: %w", err)
			}
			var req models.SyncRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing batch file: %w", err)
			}

			st, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			result, runErr := service.NewSyncService(st, newLogger(cfg)).Run(ctx, institution, req)
			if result != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.Encode(result)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&institution, "institution", "", "Provider institution name")
	cmd.MarkFlagRequired("institution")

	return cmd
}
