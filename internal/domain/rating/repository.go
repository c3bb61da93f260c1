package rating

import (
	"context"
	"time"
)

// Repository stores rankings keyed by (community, user).
type Repository interface {
	Get(ctx context.Context, communityID, userID string) (*Ranking, error)
	Create(ctx context.Context, r *Ranking) error
	CompareAndSwap(ctx context.Context, r *Ranking, expectedVersion int64) error
	ListByCommunity(ctx context.Context, communityID string) ([]*Ranking, error)
}

// MatchRepository stores duels.
type MatchRepository interface {
	Get(ctx context.Context, id string) (*Match, error)
	Create(ctx context.Context, m *Match) error
	CompareAndSwap(ctx context.Context, m *Match, expectedVersion int64) error
	// FindOpen returns the newest non-terminal match between the two users.
	FindOpen(ctx context.Context, communityID, userA, userB string) (*Match, error)
	// ListStale returns non-terminal matches whose ExpiresAt is before now.
	ListStale(ctx context.Context, now time.Time, limit int) ([]*Match, error)
	// ListUnapplied returns rated terminal matches with RatingsApplied unset.
	ListUnapplied(ctx context.Context, limit int) ([]*Match, error)
}
