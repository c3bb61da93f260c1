package repositories

import (
	"context"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/uptrace/bun"
)

type leaderboardRepository struct {
	*BaseRepository
}

func NewLeaderboardRepository(db *bun.DB) leaderboard.Repository {
	return &leaderboardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *leaderboardRepository) ReplaceBoard(ctx context.Context, b *leaderboard.Board) error {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewInsert().
		Model(models.NewLeaderboard(b)).
		On("CONFLICT (community_id, kind) DO UPDATE").
		Set("entries = EXCLUDED.entries").
		Set("generated_at = EXCLUDED.generated_at").
		Exec(timeoutCtx)
	return r.HandleErrorWithID("replace", "leaderboard", b.CommunityID+":"+string(b.Kind), err)
}

func (r *leaderboardRepository) GetBoard(ctx context.Context, communityID string, kind leaderboard.Kind) (*leaderboard.Board, error) {
	row := new(models.Leaderboard)
	err := r.SelectOneWithTimeout(ctx, "get", "leaderboard", communityID+":"+string(kind), func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(row).
			Where("community_id = ?", communityID).
			Where("kind = ?", string(kind)).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

// ReplaceQuestStats swaps the community's rows in one transaction.
func (r *leaderboardRepository) ReplaceQuestStats(ctx context.Context, communityID string, stats []leaderboard.QuestStat) error {
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	return r.Transaction(ctx, func(ctx context.Context) error {
		conn := r.Conn(ctx)
		if _, err := conn.NewDelete().
			Model((*models.QuestStat)(nil)).
			Where("community_id = ?", communityID).
			Exec(ctx); err != nil {
			return r.HandleErrorWithID("replace", "quest stats", communityID, err)
		}
		if len(stats) == 0 {
			return nil
		}
		rows := make([]models.QuestStat, 0, len(stats))
		for _, s := range stats {
			rows = append(rows, models.NewQuestStat(s))
		}
		_, err := conn.NewInsert().Model(&rows).Exec(ctx)
		return r.HandleErrorWithID("replace", "quest stats", communityID, err)
	})
}

func (r *leaderboardRepository) ListQuestStats(ctx context.Context, communityID string) ([]leaderboard.QuestStat, error) {
	var rows []models.QuestStat
	err := r.SelectWithTimeout(ctx, "list", "quest stats", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(&rows).
			Where("community_id = ?", communityID).
			Order("quest_id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]leaderboard.QuestStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}
