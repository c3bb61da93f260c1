package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/logger"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "progression",
	Short:         "Quest, ledger and ranked duel engine for Discord communities",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
	rootCmd.Flags().Bool("sync-commands", false, "Whether to sync commands to discord")
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(1)
	}
}

// loadConfig reads the config file and installs the process logger.
func loadConfig() (*bottemplate.Config, error) {
	cfg, err := bottemplate.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.AddSource))
	return cfg, nil
}

// openEngine connects the configured backend and wires the services. The
// returned close func releases the backend.
func openEngine(ctx context.Context, cfg *bottemplate.Config) (*bottemplate.Engine, func(), error) {
	backend, err := bottemplate.OpenBackend(ctx, *cfg)
	if err != nil {
		return nil, nil, err
	}
	closeBackend := func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := backend.Close(ctx); err != nil {
			slog.Error("Failed to close storage", slog.String("type", "db"), slog.Any("error", err))
		}
	}

	uploader, err := bottemplate.NewUploader(ctx, cfg.Spaces)
	if err != nil {
		closeBackend()
		return nil, nil, fmt.Errorf("failed to initialize spaces: %w", err)
	}
	engine, err := bottemplate.NewEngine(backend, cfg.Engine, uploader)
	if err != nil {
		closeBackend()
		return nil, nil, err
	}
	return engine, closeBackend, nil
}
