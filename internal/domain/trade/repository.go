package trade

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	// CompareAndSwap persists a resolution; terminal records are never rewritten.
	CompareAndSwap(ctx context.Context, r *Record, expectedVersion int64) error
	ListStalePending(ctx context.Context, now time.Time, limit int) ([]*Record, error)
	// ListSettling returns records reserved for settlement at or before the
	// given time that never finished.
	ListSettling(ctx context.Context, before time.Time, limit int) ([]*Record, error)
	// LastResolvedBy returns the newest resolved record the user offered.
	LastResolvedBy(ctx context.Context, communityID, offererID string) (*Record, error)
}
