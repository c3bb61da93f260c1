package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/ellavondegurechaff/progression/internal/gateways"
)

var _ gateways.Backend = (*Store)(nil)

var now = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func TestCreateAndCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := New().Progress()

	p := &quest.Progress{ID: "p1", CommunityID: "g", UserID: "u", QuestID: "q", Status: quest.StatusActive, Counters: quest.Counters{}}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int64(1), p.Version)
	require.ErrorIs(t, repo.Create(ctx, p), apperrors.ErrAlreadyExists)

	p.Counters["o"] = 3
	require.NoError(t, repo.CompareAndSwap(ctx, p, 1))
	assert.Equal(t, int64(2), p.Version)

	stale := p.Clone()
	stale.Counters["o"] = 99
	require.ErrorIs(t, repo.CompareAndSwap(ctx, stale, 1), apperrors.ErrVersionConflict)

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Counters.Get("o"))

	got.Counters["o"] = 1000
	again, _ := repo.Get(ctx, "p1")
	assert.Equal(t, int64(3), again.Counters.Get("o"), "reads must be isolated copies")

	_, err = repo.Get(ctx, "missing")
	require.True(t, apperrors.IsNotFound(err))
	require.True(t, apperrors.IsNotFound(repo.CompareAndSwap(ctx, &quest.Progress{ID: "missing"}, 1)))
}

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	ctx := context.Background()
	repo := New().Accounts()
	require.NoError(t, repo.Create(ctx, account.New("g", "u", now)))

	const workers, each = 16, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				err := storage.RetryCAS(ctx, 1000, func(ctx context.Context) error {
					a, err := repo.Get(ctx, "g", "u")
					if err != nil {
						return err
					}
					expected := a.Version
					account.ApplyReward(a, "", reward.Bundle{Coins: 1}, now)
					return repo.CompareAndSwap(ctx, a, expected)
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	a, err := repo.Get(ctx, "g", "u")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*each), a.Coins)
}

func TestQuestQueries(t *testing.T) {
	ctx := context.Background()
	s := New()
	quests := s.Quests()

	live := &quest.Quest{ID: "g:a@d1", CommunityID: "g", Active: true, AvailableUntil: now.Add(time.Hour)}
	done := &quest.Quest{ID: "g:b@d0", CommunityID: "g", Active: true, AvailableUntil: now.Add(-time.Minute)}
	other := &quest.Quest{ID: "h:a@d1", CommunityID: "h", Active: true}
	for _, q := range []*quest.Quest{live, done, other} {
		require.NoError(t, quests.Create(ctx, q))
	}

	active, err := quests.ListActive(ctx, "g")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	expired, err := quests.ListExpired(ctx, now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "g:b@d0", expired[0].ID)

	require.NoError(t, s.Templates().UpsertTemplate(ctx, &quest.Quest{ID: "tpl", Title: "v1"}))
	require.NoError(t, s.Templates().UpsertTemplate(ctx, &quest.Quest{ID: "tpl", Title: "v2"}))
	tpl, err := s.Templates().GetTemplate(ctx, "tpl")
	require.NoError(t, err)
	assert.Equal(t, "v2", tpl.Title)
	assert.Equal(t, int64(2), tpl.Version)

	_, ok, _ := s.Markers().GetMarker(ctx, "rotation:g:daily")
	assert.False(t, ok)
	require.NoError(t, s.Markers().SetMarker(ctx, "rotation:g:daily", "daily-2024-03-09"))
	v, ok, _ := s.Markers().GetMarker(ctx, "rotation:g:daily")
	assert.True(t, ok)
	assert.Equal(t, "daily-2024-03-09", v)
}

func TestUndeliveredClaims(t *testing.T) {
	ctx := context.Background()
	repo := New().Progress()
	for id, st := range map[string]quest.Status{"a": quest.StatusClaimed, "b": quest.StatusCompleted, "c": quest.StatusClaimed} {
		require.NoError(t, repo.Create(ctx, &quest.Progress{ID: id, Status: st, RewardDelivered: id == "c"}))
	}
	got, err := repo.ListUndelivered(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestMatchQueries(t *testing.T) {
	ctx := context.Background()
	repo := New().Matches()

	older := &rating.Match{ID: "m1", CommunityID: "g", ChallengerID: "a", OpponentID: "b", Status: rating.MatchPending, CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)}
	newer := &rating.Match{ID: "m2", CommunityID: "g", ChallengerID: "b", OpponentID: "a", Status: rating.MatchInProgress, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	done := &rating.Match{ID: "m3", CommunityID: "g", ChallengerID: "a", OpponentID: "b", Status: rating.MatchCompleted, Outcome: rating.Win}
	for _, m := range []*rating.Match{older, newer, done} {
		require.NoError(t, repo.Create(ctx, m))
	}

	open, err := repo.FindOpen(ctx, "g", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "m2", open.ID)

	_, err = repo.FindOpen(ctx, "g", "a", "c")
	assert.True(t, apperrors.IsNotFound(err))

	stale, err := repo.ListStale(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "m1", stale[0].ID)

	unapplied, err := repo.ListUnapplied(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unapplied, 1)
	assert.Equal(t, "m3", unapplied[0].ID)
}

func TestTradeRecordsAreImmutableOnceResolved(t *testing.T) {
	ctx := context.Background()
	repo := New().Trades()

	rec := &trade.Record{ID: "t1", CommunityID: "g", OffererID: "a", TargetID: "b", Status: trade.StatusPending, ExpiresAt: now}
	require.NoError(t, repo.Create(ctx, rec))
	require.NoError(t, rec.Reserve(now))
	require.NoError(t, repo.CompareAndSwap(ctx, rec, 1))

	settling, err := repo.ListSettling(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, settling, 1)
	settling, err = repo.ListSettling(ctx, now.Add(-time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, settling)

	require.NoError(t, rec.Settle(trade.StatusAccepted, now))
	require.NoError(t, repo.CompareAndSwap(ctx, rec, rec.Version))

	rec.Status = trade.StatusDeclined
	err = repo.CompareAndSwap(ctx, rec, rec.Version)
	require.ErrorIs(t, err, apperrors.ErrStateConflict)

	last, err := repo.LastResolvedBy(ctx, "g", "a")
	require.NoError(t, err)
	assert.Equal(t, trade.StatusAccepted, last.Status)
}
