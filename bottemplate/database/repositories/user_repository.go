package repositories

import (
	"context"

	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/uptrace/bun"
)

type userRepository struct {
	*BaseRepository
}

func NewUserRepository(db *bun.DB) account.Repository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) Get(ctx context.Context, communityID, userID string) (*account.Account, error) {
	row := new(models.User)
	key := account.Key(communityID, userID)
	err := r.SelectOneWithTimeout(ctx, "get", "account", key, func(ctx context.Context, db bun.IDB) error {
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

func (r *userRepository) Create(ctx context.Context, a *account.Account) error {
	a.Version = 1
	return r.Insert(ctx, "account", account.Key(a.CommunityID, a.UserID), models.NewUser(a))
}

func (r *userRepository) CompareAndSwap(ctx context.Context, a *account.Account, expectedVersion int64) error {
	row := models.NewUser(a)
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "account", account.Key(a.CommunityID, a.UserID), row, expectedVersion); err != nil {
		return err
	}
	a.Version = row.Version
	return nil
}

func (r *userRepository) ListByCommunity(ctx context.Context, communityID string) ([]*account.Account, error) {
	var rows []*models.User
	err := r.SelectWithTimeout(ctx, "list_by_community", "account", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model(&rows).
			Where("community_id = ?", communityID).
			Order("user_id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*account.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

func (r *userRepository) ListCommunities(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.SelectWithTimeout(ctx, "list_communities", "account", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().
			Model((*models.User)(nil)).
			ColumnExpr("DISTINCT community_id").
			Order("community_id ASC").
			Scan(ctx, &ids)
	})
	return ids, err
}
