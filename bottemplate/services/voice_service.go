package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/session"
	"github.com/puzpuzpuz/xsync/v3"
)

// VoiceService turns voice presence into voice-minute activity. Sub-minute
// remainders are carried per session between checkpoints.
type VoiceService struct {
	tracker  *session.Tracker
	recorder ActivityRecorder
	carry    *xsync.MapOf[session.Key, time.Duration]
}

func NewVoiceService(tracker *session.Tracker, recorder ActivityRecorder) *VoiceService {
	return &VoiceService{
		tracker:  tracker,
		recorder: recorder,
		carry:    xsync.NewMapOf[session.Key, time.Duration](),
	}
}

// Join opens a session. A user already in voice is a no-op.
func (s *VoiceService) Join(ctx context.Context, communityID, userID string, now time.Time) error {
	key := session.Key{UserID: userID, CommunityID: communityID}
	if _, err := s.tracker.Open(key, now); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyOpen) {
			slog.Debug("Voice session already open",
				slog.String("type", "engine"),
				slog.String("user_id", userID),
				slog.String("community_id", communityID))
			return nil
		}
		return err
	}
	return nil
}

// Leave closes the session and credits the remaining whole minutes. The
// sub-minute rest of the session is dropped.
func (s *VoiceService) Leave(ctx context.Context, communityID, userID string, now time.Time) (time.Duration, error) {
	key := session.Key{UserID: userID, CommunityID: communityID}
	delta, total, err := s.tracker.Close(key, now)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	s.credit(ctx, key, delta, now)
	s.carry.Delete(key)

	slog.Debug("Voice session closed",
		slog.String("type", "engine"),
		slog.String("user_id", userID),
		slog.String("community_id", communityID),
		slog.Duration("total", total))
	return total, nil
}

// Flush checkpoints every open session so long presences are credited
// without waiting for the user to leave.
func (s *VoiceService) Flush(ctx context.Context, now time.Time) error {
	var errs []error
	for _, open := range s.tracker.Snapshot() {
		delta, err := s.tracker.Checkpoint(open.Key, now)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("checkpoint %s: %w", open.Key, err))
			continue
		}
		s.credit(ctx, open.Key, delta, now)
	}
	return errors.Join(errs...)
}

// Active reports the number of open voice sessions.
func (s *VoiceService) Active() int {
	return s.tracker.Len()
}

func (s *VoiceService) credit(ctx context.Context, key session.Key, delta time.Duration, at time.Time) {
	var minutes int64
	s.carry.Compute(key, func(carried time.Duration, _ bool) (time.Duration, bool) {
		total := carried + delta
		minutes = int64(total / time.Minute)
		return total % time.Minute, false
	})
	if minutes == 0 {
		return
	}
	s.recorder.Track(ctx, Activity{
		UserID:      key.UserID,
		CommunityID: key.CommunityID,
		Kind:        quest.KindVoiceMinutes,
		Amount:      minutes,
		Timestamp:   at,
	})
}
