package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MrKriegler/go-policy-admin/internal/platform/config"
)

// migrateCommand applies Postgres migrations, Mongo indexes or DynamoDB tables
// depending on DB_TYPE.
func migrateCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepares the configured store (migrations, indexes or tables)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			backend, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			log.Info("preparing store", "db", backend.Kind)
			if err := backend.Prepare(ctx); err != nil {
				return err
			}
			log.Info("store ready", "db", backend.Kind)
			return nil
		},
	}
}
