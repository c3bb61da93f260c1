package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/leaderboard"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	uploads map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, key string, body []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	if u.uploads == nil {
		u.uploads = map[string][]byte{}
	}
	u.uploads[key] = body
	return nil
}

func seedBoards(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	for user, xp := range map[string]int64{"alice": 300, "bob": 120, "carol": 50} {
		_, err := env.accounts.ApplyReward(ctx, user, community, "", reward.Bundle{XP: xp})
		require.NoError(t, err)
	}
	require.NoError(t, env.accounts.SetClan(ctx, community, "alice", "red"))
	require.NoError(t, env.accounts.SetClan(ctx, community, "bob", "red"))

	_, err := env.rankings.ReportMatchResult(ctx, community, "carol", "alice", rating.Win, "", 0)
	require.NoError(t, err)

	env.publish(t, "chat", quest.TypeDaily, quest.KindMessageSent, 1, reward.Bundle{XP: 1})
	_, err = env.quests.Advance(ctx, community, "bob", quest.KindMessageSent, "", 1, env.clock.Now())
	require.NoError(t, err)
}

func TestRefreshCommunityBuildsBoards(t *testing.T) {
	up := &fakeUploader{}
	env := newTestEnv(t, up)
	ctx := context.Background()
	seedBoards(t, env)

	require.NoError(t, env.leaderboards.Refresh(ctx))

	xp, err := env.leaderboards.Board(ctx, community, leaderboard.KindXP)
	require.NoError(t, err)
	require.Len(t, xp.Entries, 3)
	assert.Equal(t, "alice", xp.Entries[0].ID)
	assert.Equal(t, 1, xp.Entries[0].Rank)

	ratings, err := env.leaderboards.Board(ctx, community, leaderboard.KindRating)
	require.NoError(t, err)
	require.Len(t, ratings.Entries, 2)
	assert.Equal(t, "carol", ratings.Entries[0].ID)
	assert.Equal(t, int64(1016), ratings.Entries[0].Score)

	clans, err := env.leaderboards.Board(ctx, community, leaderboard.KindClans)
	require.NoError(t, err)
	require.Len(t, clans.Entries, 1)
	assert.Equal(t, "red", clans.Entries[0].ID)
	assert.Equal(t, 2, clans.Entries[0].Count)

	stats, err := env.leaderboards.QuestStats(ctx, community)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Completions)

	body, ok := up.uploads[SnapshotKey(community)]
	require.True(t, ok)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, community, snap.CommunityID)
	assert.Len(t, snap.Boards, 3)
}

func TestRefreshSurvivesUploadFailure(t *testing.T) {
	up := &fakeUploader{err: errors.New("bucket unavailable")}
	env := newTestEnv(t, up)
	ctx := context.Background()
	seedBoards(t, env)

	snap, err := env.leaderboards.RefreshCommunity(ctx, community)
	require.NoError(t, err)
	assert.Len(t, snap.Boards, 3)

	_, err = env.leaderboards.Board(ctx, community, leaderboard.KindXP)
	assert.NoError(t, err)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "leaderboards/guild-1.json", SnapshotKey("guild-1"))
}
