package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/gateways"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Snapshot is the document published for one community after a refresh.
type Snapshot struct {
	CommunityID string                  `json:"community_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Boards      []*leaderboard.Board    `json:"boards"`
	QuestStats  []leaderboard.QuestStat `json:"quest_stats"`
}

// LeaderboardService rebuilds the derived boards from source records.
// Uploads are optional; a nil uploader keeps snapshots local.
type LeaderboardService struct {
	backend  gateways.Backend
	uploader SnapshotUploader
	cfg      config.Engine
	uploads  *semaphore.Weighted
	now      func() time.Time
}

func NewLeaderboardService(backend gateways.Backend, uploader SnapshotUploader, cfg config.Engine) *LeaderboardService {
	return &LeaderboardService{
		backend:  backend,
		uploader: uploader,
		cfg:      cfg.WithDefaults(),
		uploads:  semaphore.NewWeighted(2),
		now:      time.Now,
	}
}

// Refresh rebuilds every community's boards.
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	communities, err := s.backend.Accounts().ListCommunities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list communities: %w", err)
	}

	start := s.now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxConcurrentBatches)
	for _, communityID := range communities {
		g.Go(func() error {
			_, err := s.RefreshCommunity(ctx, communityID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Leaderboards refreshed",
		slog.String("type", "engine"),
		slog.Int("communities", len(communities)),
		slog.Duration("took", s.now().Sub(start)))
	return nil
}

// RefreshCommunity replaces the stored boards and quest stats for one
// community and publishes the snapshot.
func (s *LeaderboardService) RefreshCommunity(ctx context.Context, communityID string) (*Snapshot, error) {
	now := s.now()
	limit := s.cfg.LeaderboardSize

	accounts, err := s.backend.Accounts().ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	rankings, err := s.backend.Rankings().ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}

	snap := &Snapshot{
		CommunityID: communityID,
		GeneratedAt: now,
		Boards: []*leaderboard.Board{
			leaderboard.XPBoard(communityID, accounts, limit, now),
			leaderboard.RatingBoard(communityID, rankings, limit, now),
			leaderboard.ClanBoard(communityID, accounts, limit, now),
		},
	}
	for _, b := range snap.Boards {
		if err := s.backend.Leaderboards().ReplaceBoard(ctx, b); err != nil {
			return nil, fmt.Errorf("failed to store %s board: %w", b.Kind, err)
		}
	}

	stats, err := s.questStats(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Leaderboards().ReplaceQuestStats(ctx, communityID, stats); err != nil {
		return nil, fmt.Errorf("failed to store quest stats: %w", err)
	}
	snap.QuestStats = stats

	if err := s.publish(ctx, snap); err != nil {
		// Publishing is best effort; stored boards are already current.
		slog.Warn("Failed to publish leaderboard snapshot",
			slog.String("type", "engine"),
			slog.String("community_id", communityID),
			slog.Any("error", err))
	}
	return snap, nil
}

func (s *LeaderboardService) questStats(ctx context.Context, communityID string) ([]leaderboard.QuestStat, error) {
	quests, err := s.backend.Quests().ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	progress := make(map[string][]*quest.Progress, len(quests))
	for _, q := range quests {
		records, err := s.backend.Progress().ListByQuest(ctx, q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list progress for %s: %w", q.ID, err)
		}
		progress[q.ID] = records
	}
	return leaderboard.QuestStats(communityID, quests, progress), nil
}

func (s *LeaderboardService) publish(ctx context.Context, snap *Snapshot) error {
	if s.uploader == nil {
		return nil
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.uploads.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.uploads.Release(1)

	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTimeout)
	defer cancel()
	return s.uploader.Upload(ctx, SnapshotKey(snap.CommunityID), body)
}

// Board returns the last stored board of kind.
func (s *LeaderboardService) Board(ctx context.Context, communityID string, kind leaderboard.Kind) (*leaderboard.Board, error) {
	return s.backend.Leaderboards().GetBoard(ctx, communityID, kind)
}

// QuestStats returns the last stored per-quest telemetry.
func (s *LeaderboardService) QuestStats(ctx context.Context, communityID string) ([]leaderboard.QuestStat, error) {
	return s.backend.Leaderboards().ListQuestStats(ctx, communityID)
}

// SnapshotKey is the object key a community's snapshot is published under.
func SnapshotKey(communityID string) string {
	return "leaderboards/" + communityID + ".json"
}
