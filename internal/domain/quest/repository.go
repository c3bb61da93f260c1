package quest

import (
	"context"
	"time"
)

// Repository stores community quest instances. CompareAndSwap writes q only
// if the stored version equals expectedVersion and bumps q.Version.
type Repository interface {
	Get(ctx context.Context, id string) (*Quest, error)
	Create(ctx context.Context, q *Quest) error
	CompareAndSwap(ctx context.Context, q *Quest, expectedVersion int64) error
	ListActive(ctx context.Context, communityID string) ([]*Quest, error)
	// ListExpired returns quests whose window closed by now that are still
	// active or closed after closedAfter.
	ListExpired(ctx context.Context, closedAfter, now time.Time) ([]*Quest, error)
	ListByCommunity(ctx context.Context, communityID string) ([]*Quest, error)
}

// TemplateRepository is the read side of the external authoring store plus
// the seed upsert used at schema initialisation.
type TemplateRepository interface {
	ListTemplates(ctx context.Context) ([]*Quest, error)
	GetTemplate(ctx context.Context, id string) (*Quest, error)
	UpsertTemplate(ctx context.Context, q *Quest) error
}

// ProgressRepository stores progress records keyed by ProgressID.
type ProgressRepository interface {
	Get(ctx context.Context, id string) (*Progress, error)
	Create(ctx context.Context, p *Progress) error
	CompareAndSwap(ctx context.Context, p *Progress, expectedVersion int64) error
	ListByUser(ctx context.Context, communityID, userID string) ([]*Progress, error)
	ListByQuest(ctx context.Context, questID string) ([]*Progress, error)
	ListUndelivered(ctx context.Context, limit int) ([]*Progress, error)
}

// MarkerRepository records which rotation cycles already ran.
type MarkerRepository interface {
	GetMarker(ctx context.Context, key string) (string, bool, error)
	SetMarker(ctx context.Context, key, value string) error
}
