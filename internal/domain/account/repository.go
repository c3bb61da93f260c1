package account

import (
	"context"

	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

// Repository stores accounts keyed by (community, user).
type Repository interface {
	Get(ctx context.Context, communityID, userID string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	CompareAndSwap(ctx context.Context, a *Account, expectedVersion int64) error
	ListByCommunity(ctx context.Context, communityID string) ([]*Account, error)
	ListCommunities(ctx context.Context) ([]string, error)
}

// RewardSink is the outbound reward interface the engine calls. grantID
// makes delivery idempotent; an empty id always credits.
type RewardSink interface {
	ApplyReward(ctx context.Context, userID, communityID, grantID string, b reward.Bundle) (Result, error)
}
