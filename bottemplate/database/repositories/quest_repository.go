package repositories

import (
	"context"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/database/models"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/uptrace/bun"
)

type questRepository struct {
	*BaseRepository
}

func NewQuestRepository(db *bun.DB) quest.Repository {
	return &questRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *questRepository) Get(ctx context.Context, id string) (*quest.Quest, error) {
	row := new(models.CommunityQuest)
	err := r.SelectOneWithTimeout(ctx, "get", "quest", id, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

func (r *questRepository) Create(ctx context.Context, q *quest.Quest) error {
	q.Version = 1
	row := &models.CommunityQuest{QuestColumns: models.NewQuestColumns(q)}
	return r.Insert(ctx, "quest", q.ID, row)
}

func (r *questRepository) CompareAndSwap(ctx context.Context, q *quest.Quest, expectedVersion int64) error {
	row := &models.CommunityQuest{QuestColumns: models.NewQuestColumns(q)}
	row.Version = expectedVersion + 1
	if err := r.UpdateVersioned(ctx, "quest", q.ID, row, expectedVersion); err != nil {
		return err
	}
	q.Version = row.Version
	return nil
}

func (r *questRepository) ListActive(ctx context.Context, communityID string) ([]*quest.Quest, error) {
	return r.list(ctx, "list_active", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("community_id = ?", communityID).Where("active = ?", true)
	})
}

func (r *questRepository) ListExpired(ctx context.Context, closedAfter, now time.Time) ([]*quest.Quest, error) {
	return r.list(ctx, "list_expired", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("available_until IS NOT NULL").
			Where("available_until <= ?", now).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("active = ?", true).WhereOr("available_until > ?", closedAfter)
			})
	})
}

func (r *questRepository) ListByCommunity(ctx context.Context, communityID string) ([]*quest.Quest, error) {
	return r.list(ctx, "list_by_community", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("community_id = ?", communityID)
	})
}

func (r *questRepository) list(ctx context.Context, op string, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*quest.Quest, error) {
	var rows []*models.CommunityQuest
	err := r.SelectWithTimeout(ctx, op, "quest", func(ctx context.Context, db bun.IDB) error {
		return filter(db.NewSelect().Model(&rows)).Order("id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*quest.Quest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

type templateRepository struct {
	*BaseRepository
}

func NewTemplateRepository(db *bun.DB) quest.TemplateRepository {
	return &templateRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *templateRepository) ListTemplates(ctx context.Context) ([]*quest.Quest, error) {
	var rows []*models.QuestDefinition
	err := r.SelectWithTimeout(ctx, "list", "quest template", func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&rows).Order("type ASC", "tier ASC", "id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*quest.Quest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}

func (r *templateRepository) GetTemplate(ctx context.Context, id string) (*quest.Quest, error) {
	row := new(models.QuestDefinition)
	err := r.SelectOneWithTimeout(ctx, "get", "quest template", id, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return row.Domain(), nil
}

// UpsertTemplate replaces the authored content of a template and bumps its version.
func (r *templateRepository) UpsertTemplate(ctx context.Context, q *quest.Quest) error {
	row := &models.QuestDefinition{QuestColumns: models.NewQuestColumns(q)}
	row.Version = 1
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("type = EXCLUDED.type").
		Set("tier = EXCLUDED.tier").
		Set("difficulty = EXCLUDED.difficulty").
		Set("objectives = EXCLUDED.objectives").
		Set("rewards = EXCLUDED.rewards").
		Set("requirements = EXCLUDED.requirements").
		Set("limitations = EXCLUDED.limitations").
		Set("available_from = EXCLUDED.available_from").
		Set("available_until = EXCLUDED.available_until").
		Set("active = EXCLUDED.active").
		Set("version = qd.version + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("version").
		Exec(timeoutCtx)
	if err != nil {
		return r.HandleErrorWithID("upsert", "quest template", q.ID, err)
	}
	q.Version = row.Version
	return nil
}

type markerRepository struct {
	*BaseRepository
}

// NewMarkerRepository stores rotation markers in the app_meta table.
func NewMarkerRepository(db *bun.DB) quest.MarkerRepository {
	return &markerRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *markerRepository) GetMarker(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.SelectOneWithTimeout(ctx, "get", "marker", key, func(ctx context.Context, db bun.IDB) error {
		return db.NewRaw("SELECT value FROM app_meta WHERE key = ?", key).Scan(ctx, &value)
	})
	if IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *markerRepository) SetMarker(ctx context.Context, key, value string) error {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.Conn(ctx).NewRaw(
		"INSERT INTO app_meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key, value,
	).Exec(timeoutCtx)
	return r.HandleErrorWithID("set", "marker", key, err)
}
