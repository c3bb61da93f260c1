package repositories

import (
	"context"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/uptrace/bun"
)

type tradeRepository struct {
	*BaseRepository
}

func NewTradeRepository(db *bun.DB) trade.Repository {
	return &tradeRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *tradeRepository) Get(ctx context.Context, id string) (*trade.Record, error) {
	row := new(models.Trade)
	err := r.SelectOneWithTimeout(ctx, "get", "trade", id, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

func (r *tradeRepository) Create(ctx context.Context, t *trade.Record) error {
	t.Version = 1
	return r.Insert(ctx, "trade", t.ID, models.NewTrade(t))
}

// CompareAndSwap only ever rewrites a pending row; resolved trades are immutable.
func (r *tradeRepository) CompareAndSwap(ctx context.Context, t *trade.Record, expectedVersion int64) error {
	current, err := r.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return apperrors.Conflict("trade "+t.ID, string(current.Status), string(t.Status))
	}

	row := models.NewTrade(t)
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "trade", t.ID, row, expectedVersion); err != nil {
		return err
	}
	t.Version = row.Version
	return nil
}

func (r *tradeRepository) ListStalePending(ctx context.Context, now time.Time, limit int) ([]*trade.Record, error) {
	var rows []*models.Trade
	err := r.SelectWithTimeout(ctx, "list_stale", "trade", func(ctx context.Context, db bun.IDB) error {
		q := db.NewSelect().
			Model(&rows).
			Where("status = ?", string(trade.StatusPending)).
			Where("expires_at <= ?", now).
			Order("expires_at ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*trade.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

func (r *tradeRepository) ListSettling(ctx context.Context, before time.Time, limit int) ([]*trade.Record, error) {
	var rows []*models.Trade
	err := r.SelectWithTimeout(ctx, "list_settling", "trade", func(ctx context.Context, db bun.IDB) error {
		q := db.NewSelect().
			Model(&rows).
			Where("status = ?", string(trade.StatusSettling)).
			Where("settling_at <= ?", before).
			Order("settling_at ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*trade.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

func (r *tradeRepository) LastResolvedBy(ctx context.Context, communityID, offererID string) (*trade.Record, error) {
	row := new(models.Trade)
	err := r.SelectOneWithTimeout(ctx, "last_resolved", "resolved trade", offererID, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(row).
			Where("community_id = ?", communityID).
			Where("offerer_id = ?", offererID).
			Where("resolved_at IS NOT NULL").
			Order("resolved_at DESC").
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}
