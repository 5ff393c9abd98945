package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kampuskuevent/server/internal/config"
	"github.com/kampuskuevent/server/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
		Long: `Manage the database schema of the configured backend (DATABASE_DRIVER,
DATABASE_URL). Migrations are embedded in the binary.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), global, func(store storage.Store) error {
				if err := store.MigrateUp(); err != nil {
					return err
				}
				return printSchemaVersion(cmd, store)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), global, func(store storage.Store) error {
				if err := store.MigrateDown(steps); err != nil {
					return err
				}
				return printSchemaVersion(cmd, store)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), global, func(store storage.Store) error {
				return printSchemaVersion(cmd, store)
			})
		},
	})

	return cmd
}

// withStore opens the configured backend for the duration of fn.
func withStore(ctx context.Context, global *globalOptions, fn func(storage.Store) error) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return withStoreConfig(ctx, cfg.Database, fn)
}

func withStoreConfig(ctx context.Context, cfg config.DatabaseConfig, fn func(storage.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := storage.Open(openCtx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(store)
}

func printSchemaVersion(cmd *cobra.Command, store storage.Store) error {
	version, dirty, err := store.MigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}
