package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/lanes/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending store migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg)

			st, closeStore, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() { _ = closeStore() }()

			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", slog.String("store", cfg.Store))
			return nil
		},
	}
}
