package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
)

// ActivityRecorder accepts follow-up activity from other services. Tracking
// never fails the caller.
type ActivityRecorder interface {
	Track(ctx context.Context, act Activity)
}

// QuestTracker provides a simple interface for tracking quest progress
type QuestTracker struct {
	progression *ProgressionService
}

var _ ActivityRecorder = (*QuestTracker)(nil)

func NewQuestTracker(progression *ProgressionService) *QuestTracker {
	return &QuestTracker{
		progression: progression,
	}
}

// Track feeds act into the engine and logs instead of returning errors.
func (qt *QuestTracker) Track(ctx context.Context, act Activity) {
	if qt.progression == nil {
		slog.Error("Progression service is nil in Track")
		return
	}

	if _, err := qt.progression.OnActivity(ctx, act); err != nil && !apperrors.IsBenign(err) {
		slog.Debug("Failed to track activity",
			slog.String("type", "engine"),
			slog.String("user_id", act.UserID),
			slog.String("community_id", act.CommunityID),
			slog.String("kind", string(act.Kind)),
			slog.Any("error", err))
	}
}

// TrackMessage tracks a message sent in channelID.
func (qt *QuestTracker) TrackMessage(ctx context.Context, communityID, userID, channelID string, at time.Time) {
	qt.Track(ctx, Activity{
		UserID:      userID,
		CommunityID: communityID,
		Kind:        quest.KindMessageSent,
		Scope:       channelID,
		Amount:      1,
		Timestamp:   at,
	})
}

// TrackReaction tracks a reaction added in channelID.
func (qt *QuestTracker) TrackReaction(ctx context.Context, communityID, userID, channelID string, at time.Time) {
	qt.Track(ctx, Activity{
		UserID:      userID,
		CommunityID: communityID,
		Kind:        quest.KindReactionGiven,
		Scope:       channelID,
		Amount:      1,
		Timestamp:   at,
	})
}

// TrackCommand tracks a command execution for quest progress
func (qt *QuestTracker) TrackCommand(ctx context.Context, communityID, userID, commandName string, at time.Time) {
	qt.Track(ctx, Activity{
		UserID:      userID,
		CommunityID: communityID,
		Kind:        quest.KindCommandUsed,
		Scope:       commandName,
		Amount:      1,
		Timestamp:   at,
	})
}

// TrackVoiceMinutes tracks whole minutes of voice presence.
func (qt *QuestTracker) TrackVoiceMinutes(ctx context.Context, communityID, userID string, minutes int64, at time.Time) {
	if minutes <= 0 {
		return
	}
	qt.Track(ctx, Activity{
		UserID:      userID,
		CommunityID: communityID,
		Kind:        quest.KindVoiceMinutes,
		Amount:      minutes,
		Timestamp:   at,
	})
}
