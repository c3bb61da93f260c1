package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/ellavondegurechaff/progression/bottemplate/config"
)

// ActivityTracker receives chat activity.
type ActivityTracker interface {
	TrackMessage(ctx context.Context, communityID, userID, channelID string, at time.Time)
	TrackReaction(ctx context.Context, communityID, userID, channelID string, at time.Time)
}

// VoicePresence receives voice joins and leaves.
type VoicePresence interface {
	Join(ctx context.Context, communityID, userID string, now time.Time) error
	Leave(ctx context.Context, communityID, userID string, now time.Time) (time.Duration, error)
}

// ActivityHandler translates gateway events into engine calls.
type ActivityHandler struct {
	tracker ActivityTracker
	voice   VoicePresence
	now     func() time.Time
}

func NewActivityHandler(tracker ActivityTracker, voice VoicePresence) *ActivityHandler {
	return &ActivityHandler{
		tracker: tracker,
		voice:   voice,
		now:     time.Now,
	}
}

// Listeners returns the gateway listeners to register on the client.
func (h *ActivityHandler) Listeners() []bot.EventListener {
	return []bot.EventListener{
		bot.NewListenerFunc(func(e *events.GuildMessageCreate) {
			at := e.Message.CreatedAt
			if at.IsZero() {
				at = h.now()
			}
			h.Message(e.GuildID.String(), e.ChannelID.String(), e.Message.Author.ID.String(), e.Message.Author.Bot, at)
		}),
		bot.NewListenerFunc(func(e *events.GuildMessageReactionAdd) {
			h.Reaction(e.GuildID.String(), e.ChannelID.String(), e.UserID.String(), e.Member.User.Bot, h.now())
		}),
		bot.NewListenerFunc(func(e *events.GuildVoiceJoin) {
			h.VoiceJoin(e.VoiceState.GuildID.String(), e.VoiceState.UserID.String(), e.Member.User.Bot, h.now())
		}),
		bot.NewListenerFunc(func(e *events.GuildVoiceLeave) {
			h.VoiceLeave(e.VoiceState.GuildID.String(), e.VoiceState.UserID.String(), h.now())
		}),
	}
}

// Message handles a guild message. Bot authors are ignored.
func (h *ActivityHandler) Message(guildID, channelID, userID string, isBot bool, at time.Time) {
	if isBot {
		return
	}
	runListener("message_create", userID, func(ctx context.Context) error {
		h.tracker.TrackMessage(ctx, guildID, userID, channelID, at)
		return nil
	})
}

// Reaction handles a reaction added in a guild channel.
func (h *ActivityHandler) Reaction(guildID, channelID, userID string, isBot bool, at time.Time) {
	if isBot {
		return
	}
	runListener("reaction_add", userID, func(ctx context.Context) error {
		h.tracker.TrackReaction(ctx, guildID, userID, channelID, at)
		return nil
	})
}

func (h *ActivityHandler) VoiceJoin(guildID, userID string, isBot bool, at time.Time) {
	if isBot {
		return
	}
	runListener("voice_join", userID, func(ctx context.Context) error {
		return h.voice.Join(ctx, guildID, userID, at)
	})
}

// VoiceLeave closes the session whether or not the user is a bot, so a
// session opened before a flag change is never left dangling.
func (h *ActivityHandler) VoiceLeave(guildID, userID string, at time.Time) {
	runListener("voice_leave", userID, func(ctx context.Context) error {
		_, err := h.voice.Leave(ctx, guildID, userID, at)
		return err
	})
}

// runListener runs fn with the handler timeout and logs failures, panics and
// slow runs the way commands are logged.
func runListener(name, userID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Listener panicked",
					slog.String("type", "engine"),
					slog.String("name", name),
					slog.Any("panic", r),
					slog.String("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("listener %s panicked: %v", name, r)
			}
		}()
		return fn(ctx)
	}()

	duration := time.Since(start)
	attrs := []any{
		slog.String("type", "engine"),
		slog.String("name", name),
		slog.String("user_id", userID),
		slog.Duration("took", duration),
	}
	switch {
	case err != nil:
		slog.Error("Listener failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	case duration > config.SlowHandlerThreshold:
		slog.Warn("Listener executed slowly", append(attrs,
			slog.String("status", "slow"),
		)...)
	}
}
