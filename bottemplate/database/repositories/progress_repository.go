package repositories

import (
	"context"

	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/uptrace/bun"
)

type progressRepository struct {
	*BaseRepository
}

func NewProgressRepository(db *bun.DB) quest.ProgressRepository {
	return &progressRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *progressRepository) Get(ctx context.Context, id string) (*quest.Progress, error) {
	row := new(models.UserQuestProgress)
	err := r.SelectOneWithTimeout(ctx, "get", "quest progress", id, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

func (r *progressRepository) Create(ctx context.Context, p *quest.Progress) error {
	p.Version = 1
	return r.Insert(ctx, "quest progress", p.ID, models.NewUserQuestProgress(p))
}

func (r *progressRepository) CompareAndSwap(ctx context.Context, p *quest.Progress, expectedVersion int64) error {
	row := models.NewUserQuestProgress(p)
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "quest progress", p.ID, row, expectedVersion); err != nil {
		return err
	}
	p.Version = row.Version
	return nil
}

func (r *progressRepository) ListByUser(ctx context.Context, communityID, userID string) ([]*quest.Progress, error) {
	return r.list(ctx, "list_by_user", 0, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("community_id = ?", communityID).Where("user_id = ?", userID)
	})
}

func (r *progressRepository) ListByQuest(ctx context.Context, questID string) ([]*quest.Progress, error) {
	return r.list(ctx, "list_by_quest", 0, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quest_id = ?", questID)
	})
}

func (r *progressRepository) ListUndelivered(ctx context.Context, limit int) ([]*quest.Progress, error) {
	return r.list(ctx, "list_undelivered", limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status = ?", string(quest.StatusClaimed)).Where("reward_delivered = ?", false)
	})
}

func (r *progressRepository) list(ctx context.Context, op string, limit int, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*quest.Progress, error) {
	var rows []*models.UserQuestProgress
	err := r.SelectWithTimeout(ctx, op, "quest progress", func(ctx context.Context, db bun.IDB) error {
		q := filter(db.NewSelect().Model(&rows)).Order("id ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*quest.Progress, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}
