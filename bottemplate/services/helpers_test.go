package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/economy/cooldown"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/session"
	"github.com/ellavondegurechaff/progression/internal/gateways/memstore"
)

const community = "guild-1"

// Saturday noon UTC, well inside a daily cycle.
var epoch = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	backend      *memstore.Store
	clock        *fakeClock
	cfg          config.Engine
	accounts     *AccountService
	catalog      *QuestCatalog
	quests       *QuestService
	progression  *ProgressionService
	tracker      *QuestTracker
	voice        *VoiceService
	rankings     *RankingService
	trades       *TradeService
	leaderboards *LeaderboardService
}

func newTestEnv(t *testing.T, uploader SnapshotUploader) *testEnv {
	t.Helper()
	clock := &fakeClock{t: epoch}
	cfg := config.DefaultEngine()
	backend := memstore.New()

	catalog, err := NewQuestCatalog(backend.Templates())
	require.NoError(t, err)
	catalog.now = clock.Now

	env := &testEnv{backend: backend, clock: clock, cfg: cfg, catalog: catalog}
	env.accounts = NewAccountService(backend.Accounts())
	env.accounts.now = clock.Now
	env.quests = NewQuestService(backend, env.accounts, catalog, cfg)
	env.quests.now = clock.Now
	env.progression = NewProgressionService(env.accounts, env.quests, cooldown.NewManager(), cfg)
	env.progression.now = clock.Now
	env.tracker = NewQuestTracker(env.progression)
	env.voice = NewVoiceService(session.NewTracker(), env.tracker)
	env.rankings = NewRankingService(backend, env.tracker, cfg)
	env.rankings.now = clock.Now
	env.trades = NewTradeService(backend, env.accounts, env.tracker, cfg)
	env.trades.now = clock.Now
	env.leaderboards = NewLeaderboardService(backend, uploader, cfg)
	env.leaderboards.now = clock.Now
	return env
}

// publish stores an open quest with one objective.
func (e *testEnv) publish(t *testing.T, id string, typ quest.Type, kind quest.ObjectiveKind, target int64, rewards reward.Bundle) *quest.Quest {
	t.Helper()
	now := e.clock.Now()
	q := &quest.Quest{
		ID:             id,
		CommunityID:    community,
		Title:          "Quest " + id,
		Type:           typ,
		Tier:           1,
		Difficulty:     reward.DifficultyEasy,
		Objectives:     []quest.Objective{{ID: "o1", Kind: kind, Target: target}},
		Rewards:        quest.Rewards{Bundle: rewards},
		AvailableFrom:  now.Add(-time.Hour),
		AvailableUntil: now.Add(12 * time.Hour),
		Active:         true,
	}
	require.NoError(t, e.quests.Publish(context.Background(), q))
	return q
}

// fund credits coins and tokens to a user.
func (e *testEnv) fund(t *testing.T, userID string, coins, tokens int64) {
	t.Helper()
	_, err := e.accounts.ApplyReward(context.Background(), userID, community, "", reward.Bundle{Coins: coins, Tokens: tokens})
	require.NoError(t, err)
}

// recorder captures tracked activity.
type recorder struct {
	mu   sync.Mutex
	acts []Activity
}

func (r *recorder) Track(_ context.Context, act Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acts = append(r.acts, act)
}

func (r *recorder) minutes() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, a := range r.acts {
		if a.Kind == quest.KindVoiceMinutes {
			out = append(out, a.Amount)
		}
	}
	return out
}
