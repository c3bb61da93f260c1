package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/ellavondegurechaff/progression/internal/gateways"
)

var _ gateways.Backend = (*Store)(nil)

// connect runs against PROGRESSION_TEST_MONGO_URI and skips without it.
func connect(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("PROGRESSION_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PROGRESSION_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, Config{URI: uri, Database: fmt.Sprintf("progression_test_%d", time.Now().UnixNano())})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestAccountRoundTripAndCAS(t *testing.T) {
	s := connect(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	a := account.New("g", "u", now)
	account.ApplyReward(a, "grant-1", reward.Bundle{XP: 150, Coins: 5, Items: []reward.ItemGrant{{ItemID: "gem", Quantity: 1}}}, now)
	require.NoError(t, s.Accounts().Create(ctx, a))
	require.ErrorIs(t, s.Accounts().Create(ctx, a), apperrors.ErrAlreadyExists)

	got, err := s.Accounts().Get(ctx, "g", "u")
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.XP)
	assert.Equal(t, int64(1), got.Items["gem"])
	assert.True(t, got.HasGrant("grant-1"))
	assert.Equal(t, int64(1), got.Version)

	got.Coins = 10
	require.NoError(t, s.Accounts().CompareAndSwap(ctx, got, 1))
	require.ErrorIs(t, s.Accounts().CompareAndSwap(ctx, a, 1), apperrors.ErrVersionConflict)

	communities, err := s.Accounts().ListCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, communities)
}

func TestProgressQueries(t *testing.T) {
	s := connect(t)
	ctx := context.Background()

	for _, p := range []*quest.Progress{
		{ID: "g:u:q1", CommunityID: "g", UserID: "u", QuestID: "q1", Status: quest.StatusClaimed},
		{ID: "g:u:q2", CommunityID: "g", UserID: "u", QuestID: "q2", Status: quest.StatusActive, Counters: quest.Counters{"o": 2}},
	} {
		require.NoError(t, s.Progress().Create(ctx, p))
	}

	mine, err := s.Progress().ListByUser(ctx, "g", "u")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	undelivered, err := s.Progress().ListUndelivered(ctx, 10)
	require.NoError(t, err)
	require.Len(t, undelivered, 1)
	assert.Equal(t, "g:u:q1", undelivered[0].ID)
}

func TestMatchAndTradeQueries(t *testing.T) {
	s := connect(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	m := &rating.Match{ID: "m1", CommunityID: "g", ChallengerID: "a", OpponentID: "b", Status: rating.MatchPending, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, s.Matches().Create(ctx, m))

	open, err := s.Matches().FindOpen(ctx, "g", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, "m1", open.ID)

	stale, err := s.Matches().ListStale(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	rec := &trade.Record{ID: "t1", CommunityID: "g", OffererID: "a", TargetID: "b", Status: trade.StatusPending, ExpiresAt: now}
	require.NoError(t, s.Trades().Create(ctx, rec))
	require.NoError(t, rec.Resolve(trade.StatusDeclined, now))
	require.NoError(t, s.Trades().CompareAndSwap(ctx, rec, 1))
	require.ErrorIs(t, s.Trades().CompareAndSwap(ctx, rec, rec.Version), apperrors.ErrStateConflict)
}

func TestMarkers(t *testing.T) {
	s := connect(t)
	ctx := context.Background()

	_, ok, err := s.Markers().GetMarker(ctx, "rotation:g:daily")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Markers().SetMarker(ctx, "rotation:g:daily", "daily-2024-03-09"))
	v, ok, err := s.Markers().GetMarker(ctx, "rotation:g:daily")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "daily-2024-03-09", v)
}
