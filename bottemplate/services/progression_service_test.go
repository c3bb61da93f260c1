package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

func message(env *testEnv, userID string) Activity {
	return Activity{UserID: userID, CommunityID: community, Kind: quest.KindMessageSent, Timestamp: env.clock.Now()}
}

func TestOnActivityPassiveCooldown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res, err := env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)
	assert.Equal(t, reward.Bundle{XP: 5, Coins: 1}, res.Paid)

	env.clock.Advance(30 * time.Second)
	res, err = env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)
	assert.True(t, res.Paid.IsZero())

	env.clock.Advance(31 * time.Second)
	res, err = env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Paid.XP)

	acct, err := env.accounts.Get(ctx, community, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), acct.XP)
	assert.Equal(t, int64(2), acct.Coins)
}

func TestOnActivityVoiceIsNotGated(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := env.progression.OnActivity(ctx, Activity{
			UserID:      "u1",
			CommunityID: community,
			Kind:        quest.KindVoiceMinutes,
			Amount:      3,
			Timestamp:   env.clock.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), res.Paid.XP)
	}
}

func TestOnActivityValidates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.progression.OnActivity(ctx, Activity{CommunityID: community, Kind: quest.KindMessageSent})
	assert.True(t, apperrors.IsValidation(err))

	_, err = env.progression.OnActivity(ctx, Activity{UserID: "u1", CommunityID: community, Kind: "dancing"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = env.progression.OnActivity(ctx, Activity{UserID: "u1", CommunityID: community, Kind: quest.KindMessageSent, Amount: -1})
	assert.True(t, apperrors.IsValidation(err))
}

func TestOnActivityCountsPassiveCoins(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "earn", quest.TypeWeekly, quest.KindCurrencyEarned, 2, reward.Bundle{XP: 10})

	res, err := env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)
	assert.Empty(t, res.Completed)

	env.clock.Advance(time.Minute)
	res, err = env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, "earn", res.Completed[0].QuestID)
}

func TestOnActivityCompletionCascade(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.publish(t, "first", quest.TypeDaily, quest.KindMessageSent, 1, reward.Bundle{XP: 100})
	env.publish(t, "second", quest.TypeWeekly, quest.KindQuestCompleted, 1, reward.Bundle{XP: 10})
	env.publish(t, "third", quest.TypeWeekly, quest.KindQuestCompleted, 2, reward.Bundle{XP: 10})

	res, err := env.progression.OnActivity(ctx, message(env, "u1"))
	require.NoError(t, err)

	var ids []string
	for _, p := range res.Completed {
		ids = append(ids, p.QuestID)
	}
	assert.ElementsMatch(t, []string{"first", "second", "third"}, ids)
	assert.Equal(t, 1, res.Streak)

	// The streak feeds the claim bonus on every currency.
	claim, err := env.quests.Claim(ctx, community, "u1", "first")
	require.NoError(t, err)
	bonus := env.cfg.StreakBonusPerDay
	assert.Equal(t, 100+bonus, claim.Reward.XP)
	assert.Equal(t, bonus, claim.Reward.Coins)
}

func TestTrackerSwallowsErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.tracker.Track(ctx, Activity{UserID: "u1", CommunityID: community, Kind: "bogus"})
	env.tracker.TrackMessage(ctx, community, "u1", "chan-1", env.clock.Now())

	acct, err := env.accounts.Get(ctx, community, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), acct.XP)
}
