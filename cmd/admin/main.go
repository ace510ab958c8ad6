// Package main is the operator CLI for the policy admin service. It prepares
// the configured store, seeds demo data and mints bearer tokens.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrKriegler/go-policy-admin/internal/platform/config"
	"github.com/MrKriegler/go-policy-admin/internal/platform/logging"
	"github.com/MrKriegler/go-policy-admin/internal/store"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)

	rootCmd := &cobra.Command{
		Use:          "policy-admin",
		Short:        "Operator commands for the policy admin service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		migrateCommand(cfg, log),
		seedCommand(cfg, log),
		jwtCommand(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured backend and returns it with its cleanup.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store.Backend, func(), error) {
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.DBType, err)
	}
	return backend, func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Warn("could not close store", "err", err)
		}
	}, nil
}
