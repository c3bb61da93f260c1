package cmd

import (
	"context"
	"log/slog"

	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/migration"
	"github.com/spf13/cobra"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "copy progression data from one storage driver to another",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		ctx, cancel := context.WithTimeout(cmd.Context(), config.StartupTimeout)
		defer cancel()

		src, err := openDriver(ctx, *cfg, from)
		if err != nil {
			return err
		}
		defer src.Close(context.Background())

		dst, err := openDriver(ctx, *cfg, to)
		if err != nil {
			return err
		}
		defer dst.Close(context.Background())

		if err := migration.NewMigrator(src, dst).MigrateAll(ctx); err != nil {
			slog.Error("Migration failed", slog.String("type", "db"), slog.Any("error", err))
			return err
		}
		slog.Info("Migration completed successfully!", slog.String("type", "db"))
		return nil
	},
}

func init() {
	migrateCMD.Flags().String("from", bottemplate.DriverMongo, "source storage driver")
	migrateCMD.Flags().String("to", bottemplate.DriverPostgres, "destination storage driver")
	rootCmd.AddCommand(migrateCMD)
}
