package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/storage"
)

func TestAdvanceCompletesQuest(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, 3, reward.Bundle{XP: 100})

	for i := 0; i < 2; i++ {
		done, err := env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 1, env.clock.Now())
		require.NoError(t, err)
		assert.Empty(t, done)
	}
	done, err := env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 5, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, quest.StatusCompleted, done[0].Status)

	statuses, err := env.quests.Status(ctx, community, "u1")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 100, statuses[0].Percentage)

	// A completed record takes no more progress.
	done, err = env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestAdvanceIgnoresOtherKinds(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, 1, reward.Bundle{XP: 10})

	done, err := env.quests.Advance(ctx, community, "u1", quest.KindReactionGiven, "", 1, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, done)

	_, err = env.backend.Progress().Get(ctx, quest.ProgressID(community, "u1", "chat"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConcurrentRecordProgressCompletesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	const workers = 64
	env.publish(t, "grind", quest.TypeEvent, quest.KindMessageSent, workers, reward.Bundle{XP: 10})

	p, err := env.quests.Start(ctx, community, "alice", "grind")
	require.NoError(t, err)

	var (
		wg          sync.WaitGroup
		completions atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, out, err := env.quests.RecordProgress(ctx, p.ID, "o1", 1)
				if errors.Is(err, storage.ErrRetriesExhausted) {
					continue
				}
				assert.NoError(t, err)
				if out.Completed {
					completions.Add(1)
				}
				return
			}
		}()
	}
	wg.Wait()

	stored, err := env.backend.Progress().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), stored.Counters.Get("o1"))
	assert.Equal(t, quest.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, int32(1), completions.Load())
}

func TestConcurrentAdvanceCompletesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	const (
		workers = 64
		target  = 40
	)
	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, target, reward.Bundle{XP: 10})

	var (
		wg          sync.WaitGroup
		completions atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				done, err := env.quests.Advance(ctx, community, "alice", quest.KindMessageSent, "", 1, env.clock.Now())
				if errors.Is(err, storage.ErrRetriesExhausted) {
					continue
				}
				assert.NoError(t, err)
				completions.Add(int32(len(done)))
				return
			}
		}()
	}
	wg.Wait()

	stored, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, "alice", "chat"))
	require.NoError(t, err)
	assert.Equal(t, int64(target), stored.Counters.Get("o1"))
	assert.Equal(t, quest.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, int32(1), completions.Load())
}

func TestClaimPaysOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "chat", quest.TypeWeekly, quest.KindMessageSent, 1, reward.Bundle{XP: 100, Coins: 40, Tokens: 2})

	_, err := env.quests.Claim(ctx, community, "u1", "chat")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)

	const claimers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*ClaimResult
		errs    []error
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.quests.Claim(ctx, community, "u1", "chat")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, res)
		}()
	}
	wg.Wait()

	require.Len(t, results, 1)
	require.Len(t, errs, claimers-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)
	}

	res := results[0]
	assert.True(t, res.Delivered)
	assert.Equal(t, reward.Bundle{XP: 100, Coins: 40, Tokens: 2}, res.Reward)
	assert.Equal(t, quest.StatusClaimed, res.Progress.Status)

	acct, err := env.accounts.Get(ctx, community, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.XP)
	assert.Equal(t, int64(40), acct.Coins)
	assert.Equal(t, int64(2), acct.Tokens)
}

func TestClaimRejectsUnfinished(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, 5, reward.Bundle{XP: 10})

	_, err := env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)

	_, err = env.quests.Claim(ctx, community, "u1", "chat")
	assert.ErrorIs(t, err, apperrors.ErrNotCompleted)
}

func TestClaimScalesByDifficulty(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := &quest.Quest{
		ID:             "boss",
		CommunityID:    community,
		Title:          "Boss",
		Type:           quest.TypeEvent,
		Difficulty:     reward.DifficultyHard,
		Objectives:     []quest.Objective{{ID: "o1", Kind: quest.KindDuelWon, Target: 1}},
		Rewards:        quest.Rewards{Bundle: reward.Bundle{XP: 50, Coins: 15}},
		AvailableUntil: env.clock.Now().Add(time.Hour),
		Active:         true,
	}
	require.NoError(t, env.quests.Publish(ctx, q))

	_, err := env.quests.Advance(ctx, community, "u1", quest.KindDuelWon, "", 1, env.clock.Now())
	require.NoError(t, err)

	res, err := env.quests.Claim(ctx, community, "u1", "boss")
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Reward.XP)
	assert.Equal(t, int64(30), res.Reward.Coins)
}

func TestPublishValidates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.quests.Publish(ctx, &quest.Quest{ID: "x", CommunityID: community, Type: quest.TypeDaily})
	assert.True(t, apperrors.IsValidation(err))

	err = env.quests.Publish(ctx, &quest.Quest{
		ID:         "x",
		Title:      "No community",
		Type:       quest.TypeDaily,
		Objectives: []quest.Objective{{ID: "o1", Kind: quest.KindMessageSent, Target: 1}},
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRotateIsIdempotentPerCycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, id := range []string{"talk", "react"} {
		require.NoError(t, env.backend.Templates().UpsertTemplate(ctx, &quest.Quest{
			ID:         id,
			Title:      "Template " + id,
			Type:       quest.TypeDaily,
			Tier:       1,
			Objectives: []quest.Objective{{ID: "o1", Kind: quest.KindMessageSent, Target: 5}},
			Active:     true,
		}))
	}

	rotated, err := env.quests.Rotate(ctx, community, quest.TypeDaily)
	require.NoError(t, err)
	assert.True(t, rotated)

	active, err := env.quests.Available(ctx, community)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "daily-2024-03-09", active[0].Cycle)
	assert.True(t, quest.NextReset(env.clock.Now(), quest.TypeDaily, time.UTC).Equal(active[0].AvailableUntil))

	rotated, err = env.quests.Rotate(ctx, community, quest.TypeDaily)
	require.NoError(t, err)
	assert.False(t, rotated)

	// The next day retires yesterday's instance.
	env.clock.Advance(24 * time.Hour)
	rotated, err = env.quests.Rotate(ctx, community, quest.TypeDaily)
	require.NoError(t, err)
	assert.True(t, rotated)

	all, err := env.backend.Quests().ListByCommunity(ctx, community)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, q := range all {
		assert.Equal(t, q.Cycle == "daily-2024-03-10", q.Active, q.ID)
	}
}

func TestUnclaimedDailyDoesNotBlockNextCycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.backend.Templates().UpsertTemplate(ctx, &quest.Quest{
		ID:         "talk",
		Title:      "Talk",
		Type:       quest.TypeDaily,
		Tier:       1,
		Objectives: []quest.Objective{{ID: "o1", Kind: quest.KindMessageSent, Target: 2}},
		Rewards:    quest.Rewards{Bundle: reward.Bundle{XP: 10}},
		Active:     true,
	}))

	_, err := env.quests.Rotate(ctx, community, quest.TypeDaily)
	require.NoError(t, err)
	done, err := env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 2, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, done, 1)

	// Yesterday's completion stays unclaimed inside its grace period.
	env.clock.Advance(24 * time.Hour)
	_, err = env.quests.Rotate(ctx, community, quest.TypeDaily)
	require.NoError(t, err)
	_, err = env.quests.ExpireQuests(ctx)
	require.NoError(t, err)

	done, err = env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 2, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, quest.InstanceID(community, "talk", "daily-2024-03-10"), done[0].QuestID)

	prev, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, "u1", quest.InstanceID(community, "talk", "daily-2024-03-09")))
	require.NoError(t, err)
	assert.Equal(t, quest.StatusCompleted, prev.Status)
}

func TestExpireQuestsHonoursClaimGrace(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, 2, reward.Bundle{XP: 10})

	_, err := env.quests.Advance(ctx, community, "idle", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)
	_, err = env.quests.Advance(ctx, community, "done", quest.KindMessageSent, "", 2, env.clock.Now())
	require.NoError(t, err)

	env.clock.Advance(13 * time.Hour)
	res, err := env.quests.ExpireQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpiryResult{Deactivated: 1, Expired: 1}, res)

	idle, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, "idle", "chat"))
	require.NoError(t, err)
	assert.Equal(t, quest.StatusExpired, idle.Status)

	done, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, "done", "chat"))
	require.NoError(t, err)
	assert.Equal(t, quest.StatusCompleted, done.Status)

	env.clock.Advance(env.cfg.ClaimGrace())
	res, err = env.quests.ExpireQuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpiryResult{Expired: 1}, res)

	done, err = env.backend.Progress().Get(ctx, quest.ProgressID(community, "done", "chat"))
	require.NoError(t, err)
	assert.Equal(t, quest.StatusExpired, done.Status)
}

func TestRedeliverClaimsCreditsPendingRewards(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := env.publish(t, "chat", quest.TypeWeekly, quest.KindMessageSent, 1, reward.Bundle{Coins: 25})

	_, err := env.quests.Advance(ctx, community, "u1", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)

	// Claim without delivering, as if the credit failed after the commit.
	p, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, "u1", q.ID))
	require.NoError(t, err)
	next := p.Clone()
	_, err = quest.Claim(next, q, 1, 0, env.clock.Now())
	require.NoError(t, err)
	require.NoError(t, env.backend.Progress().CompareAndSwap(ctx, next, p.Version))

	n, err := env.quests.RedeliverClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.quests.RedeliverClaims(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	acct, err := env.accounts.Get(ctx, community, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), acct.Coins)
}
