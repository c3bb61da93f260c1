package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
)

// CommandTracker records command usage toward command_used objectives.
type CommandTracker interface {
	TrackCommand(ctx context.Context, communityID, userID, commandName string, at time.Time)
}

// WrapWithLogging wraps a command handler with logging functionality. A
// successful guild command is also tracked when tracker is set.
func WrapWithLogging(name string, h handler.CommandHandler, tracker CommandTracker) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()

		// Log command start
		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("channel_id", e.ChannelID().String()),
		)

		// Execute the command with timeout tracking
		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Command panicked",
						slog.String("type", "cmd"),
						slog.String("name", name),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())))
					done <- fmt.Errorf("command %s panicked: %v", name, r)
				}
			}()
			done <- h(e)
		}()

		// Wait for command completion or timeout
		select {
		case err := <-done:
			duration := time.Since(start)

			// Log command completion
			attrs := []any{
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("user_name", e.User().Username),
				slog.Duration("took", duration),
			}

			if err != nil {
				slog.Error("Command failed", append(attrs,
					slog.Any("error", err),
					slog.String("status", "failed"),
				)...)
				return err
			}

			if duration > config.SlowHandlerThreshold {
				slog.Warn("Command executed slowly", append(attrs,
					slog.String("status", "slow"),
				)...)
			} else {
				slog.Info("Command completed", append(attrs,
					slog.String("status", "success"),
				)...)
			}

			if tracker != nil && e.GuildID() != nil {
				ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
				defer cancel()
				tracker.TrackCommand(ctx, e.GuildID().String(), e.User().ID.String(), name, start)
			}
			return nil

		case <-time.After(config.HandlerTimeout):
			slog.Error("Command timed out",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("user_name", e.User().Username),
				slog.String("status", "timeout"),
				slog.Duration("timeout", config.HandlerTimeout),
			)
			return fmt.Errorf("command timed out after %s", config.HandlerTimeout)
		}
	}
}
