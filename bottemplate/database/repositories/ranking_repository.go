package repositories

import (
	"context"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/uptrace/bun"
)

type rankingRepository struct {
	*BaseRepository
}

func NewRankingRepository(db *bun.DB) rating.Repository {
	return &rankingRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *rankingRepository) Get(ctx context.Context, communityID, userID string) (*rating.Ranking, error) {
	row := new(models.Ranking)
	err := r.SelectOneWithTimeout(ctx, "get", "ranking", communityID+":"+userID, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(row).
			Where("community_id = ?", communityID).
			Where("user_id = ?", userID).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

func (r *rankingRepository) Create(ctx context.Context, rk *rating.Ranking) error {
	rk.Version = 1
	return r.Insert(ctx, "ranking", rk.CommunityID+":"+rk.UserID, models.NewRanking(rk))
}

func (r *rankingRepository) CompareAndSwap(ctx context.Context, rk *rating.Ranking, expectedVersion int64) error {
	row := models.NewRanking(rk)
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "ranking", rk.CommunityID+":"+rk.UserID, row, expectedVersion); err != nil {
		return err
	}
	rk.Version = row.Version
	return nil
}

func (r *rankingRepository) ListByCommunity(ctx context.Context, communityID string) ([]*rating.Ranking, error) {
	var rows []*models.Ranking
	err := r.SelectWithTimeout(ctx, "list_by_community", "ranking", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(&rows).
			Where("community_id = ?", communityID).
			Order("rating DESC", "user_id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*rating.Ranking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

type matchRepository struct {
	*BaseRepository
}

func NewMatchRepository(db *bun.DB) rating.MatchRepository {
	return &matchRepository{BaseRepository: NewBaseRepository(db)}
}

var openMatchStatuses = []string{string(rating.MatchPending), string(rating.MatchInProgress)}

func (r *matchRepository) Get(ctx context.Context, id string) (*rating.Match, error) {
	row := new(models.Match)
	err := r.SelectOneWithTimeout(ctx, "get", "match", id, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

func (r *matchRepository) Create(ctx context.Context, m *rating.Match) error {
	m.Version = 1
	return r.Insert(ctx, "match", m.ID, models.NewMatch(m))
}

func (r *matchRepository) CompareAndSwap(ctx context.Context, m *rating.Match, expectedVersion int64) error {
	row := models.NewMatch(m)
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "match", m.ID, row, expectedVersion); err != nil {
		return err
	}
	m.Version = row.Version
	return nil
}

func (r *matchRepository) FindOpen(ctx context.Context, communityID, userA, userB string) (*rating.Match, error) {
	var rows []*models.Match
	err := r.SelectWithTimeout(ctx, "find_open", "match", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(&rows).
			Where("community_id = ?", communityID).
			Where("status IN (?)", bun.In(openMatchStatuses)).
			Where("(challenger_id = ? AND opponent_id = ?) OR (challenger_id = ? AND opponent_id = ?)",
				userA, userB, userB, userA).
			Order("created_at DESC").
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("open match", userA+"/"+userB)
	}
	return rows[0].Domain(), nil
}

func (r *matchRepository) ListStale(ctx context.Context, now time.Time, limit int) ([]*rating.Match, error) {
	return r.list(ctx, "list_stale", limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status IN (?)", bun.In(openMatchStatuses)).
			Where("expires_at IS NOT NULL").
			Where("expires_at < ?", now)
	})
}

func (r *matchRepository) ListUnapplied(ctx context.Context, limit int) ([]*rating.Match, error) {
	return r.list(ctx, "list_unapplied", limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status IN (?)", bun.In([]string{string(rating.MatchCompleted), string(rating.MatchExpired)})).
			Where("outcome <> ''").
			Where("ratings_applied = ?", false)
	})
}

func (r *matchRepository) list(ctx context.Context, op string, limit int, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*rating.Match, error) {
	var rows []*models.Match
	err := r.SelectWithTimeout(ctx, op, "match", func(ctx context.Context, db bun.IDB) error {
		q := filter(db.NewSelect().Model(&rows)).Order("created_at ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*rating.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}
