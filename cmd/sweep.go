package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/scheduler"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [name...]",
	Short: "run maintenance sweeps once and exit",
	Long:  "Runs quest rotation, expiry, claim redelivery, match and trade expiry and leaderboard rebuilds once. With names, only those sweeps run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.StartupTimeout)
		defer cancel()

		engine, closeEngine, err := openEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeEngine()

		sweeps := engine.Sweeps(cfg.Engine)
		if len(args) > 0 {
			var picked []scheduler.Sweep
			for _, sw := range sweeps {
				if slices.Contains(args, sw.Name) {
					picked = append(picked, sw)
				}
			}
			if len(picked) != len(args) {
				return fmt.Errorf("unknown sweep in %v", args)
			}
			sweeps = picked
		}

		sched, err := scheduler.New(sweeps...)
		if err != nil {
			return err
		}
		defer sched.Stop()

		if err := sched.RunOnce(ctx); err != nil {
			return err
		}
		slog.Info("Sweeps finished", slog.String("type", "engine"), slog.Int("sweeps", len(sweeps)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
