package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate"
	"github.com/ellavondegurechaff/progression/bottemplate/commands"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/handlers"
	"github.com/ellavondegurechaff/progression/bottemplate/scheduler"
	"github.com/spf13/cobra"
)

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("Starting progression bot",
		slog.String("type", "sys"),
		slog.String("version", Version),
		slog.String("commit", Commit))

	ctx, cancel := context.WithTimeout(cmd.Context(), config.StartupTimeout)
	defer cancel()

	engine, closeEngine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEngine()

	sched, err := scheduler.New(engine.Sweeps(cfg.Engine)...)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", slog.String("type", "sys"), slog.Any("error", err))
		}
	}()

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	engine.Cooldowns.StartCleanupRoutine(cleanupCtx, config.CooldownCleanupInterval)

	b := bottemplate.New(*cfg, engine, Version, Commit)

	h := handler.New()
	commands.Register(h, b)

	activity := handlers.NewActivityHandler(engine.Tracker, engine.Voice)
	listeners := append([]bot.EventListener{h, bot.NewListenerFunc(b.OnReady)}, activity.Listeners()...)
	if err = b.SetupBot(listeners...); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		return err
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Credit open voice sessions before the gateway goes away.
		if err := engine.Voice.Flush(ctx, time.Now()); err != nil {
			slog.Error("Failed to flush voice sessions", slog.String("type", "sys"), slog.Any("error", err))
		}
		b.Client.Close(ctx)
	}()

	if sync, _ := cmd.Flags().GetBool("sync-commands"); sync {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
	return nil
}
