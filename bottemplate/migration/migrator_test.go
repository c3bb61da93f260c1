package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/gateways/memstore"
)

var now = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func seedSource(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	src := memstore.New()

	a := account.New("g1", "u1", now)
	account.ApplyReward(a, "", reward.Bundle{XP: 120, Coins: 40}, now)
	require.NoError(t, src.Accounts().Create(ctx, a))
	require.NoError(t, src.Accounts().Create(ctx, account.New("g2", "u2", now)))

	r := rating.NewRanking("g1", "u1")
	r.Rating = 1234
	require.NoError(t, src.Rankings().Create(ctx, r))

	q := &quest.Quest{ID: "q1", CommunityID: "g1", Title: "Chatter", Type: quest.TypeDaily, Active: true}
	require.NoError(t, src.Quests().Create(ctx, q))
	require.NoError(t, src.Progress().Create(ctx, &quest.Progress{
		ID: quest.ProgressID("g1", "u1", "q1"), CommunityID: "g1", UserID: "u1", QuestID: "q1",
		Status: quest.StatusActive, Counters: quest.Counters{"o1": 3},
	}))
	return src
}

func TestMigrateAllCopiesRecords(t *testing.T) {
	ctx := context.Background()
	src := seedSource(t)
	dst := memstore.New()

	m := NewMigrator(src, dst)
	require.NoError(t, m.MigrateAll(ctx))

	got, err := dst.Accounts().Get(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), got.XP)
	assert.Equal(t, int64(40), got.Coins)

	rk, err := dst.Rankings().Get(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1234, rk.Rating)

	p, err := dst.Progress().Get(ctx, quest.ProgressID("g1", "u1", "q1"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Counters.Get("o1"))

	stats := m.Stats()
	assert.Equal(t, 2, stats.Tables["accounts"].Successful)
	assert.Zero(t, stats.TotalErrors)
}

func TestMigrateAllSkipsExisting(t *testing.T) {
	ctx := context.Background()
	src := seedSource(t)
	dst := memstore.New()

	require.NoError(t, NewMigrator(src, dst).MigrateAll(ctx))

	m := NewMigrator(src, dst)
	require.NoError(t, m.MigrateAll(ctx))
	stats := m.Stats()
	assert.Equal(t, 2, stats.Tables["accounts"].Skipped)
	assert.Equal(t, 1, stats.Tables["rankings"].Skipped)
	assert.Equal(t, 1, stats.Tables["quest_progress"].Skipped)
	assert.Zero(t, stats.TotalErrors)
}
