package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/database"
	"github.com/ellavondegurechaff/progression/internal/gateways"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "manage the postgres schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "create missing tables and seed quest templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
			if err := db.InitializeSchema(ctx); err != nil {
				return err
			}
			return database.SeedTemplates(ctx, database.NewStore(db).Templates(), time.Now())
		})
	},
}

var schemaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "truncate every progression table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if confirmed, _ := cmd.Flags().GetBool("yes"); !confirmed {
			return fmt.Errorf("refusing to reset without --yes")
		}
		return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
			return db.ResetAppTables(ctx)
		})
	},
}

var schemaMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply pending schema changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
			return db.MigrateSchema(ctx)
		})
	},
}

func init() {
	schemaResetCmd.Flags().Bool("yes", false, "confirm the reset")
	schemaCmd.AddCommand(schemaInitCmd, schemaResetCmd, schemaMigrateCmd)
	rootCmd.AddCommand(schemaCmd)
}

func withDB(parent context.Context, fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(parent, config.StartupTimeout)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	start := time.Now()
	if err := fn(ctx, db); err != nil {
		return err
	}
	slog.Info("Schema command finished",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(start)))
	return nil
}

// openDriver opens the backend for driver with the connection settings of cfg.
func openDriver(ctx context.Context, cfg bottemplate.Config, driver string) (gateways.Backend, error) {
	cfg.Storage.Driver = driver
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return bottemplate.OpenBackend(ctx, cfg)
}
