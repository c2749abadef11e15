package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/service"
)

func newMappingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Maintain category mappings",
	}
	cmd.AddCommand(newMappingsExportCommand())
	cmd.AddCommand(newMappingsImportCommand())
	return cmd
}

func newMappingsExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all category mappings to stdout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := service.NewMappingService(st).Export(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
}

func newMappingsImportCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import <mappings-file>",
		Short: "Import category mappings from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading mappings file: %w", err)
			}
			var rows []models.MappingRow
			if err := json.Unmarshal(data, &rows); err != nil {
				return fmt.Errorf("parsing mappings file: %w", err)
			}

			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := service.NewMappingService(st).Import(ctx, rows, overwrite)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added=%d updated=%d skipped=%d\n",
				summary.Added, summary.Updated, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing mappings on conflict")

	return cmd
}
