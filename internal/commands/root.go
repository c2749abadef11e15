package commands

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orhss/finagg/internal/config"
	"github.com/orhss/finagg/internal/logger"
	"github.com/orhss/finagg/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finagg",
		Short: "Financial record aggregation and reconciliation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newMappingsCommand())

	return rootCmd
}

// openStore connects to the database configured in the environment.
func openStore(ctx context.Context) (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(ctx, cfg.DBSource)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.Env, cfg.LogLevel)
}
