package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/ellavondegurechaff/progression/internal/gateways/memstore"
)

func balance(t *testing.T, env *testEnv, userID string) (coins, tokens int64) {
	t.Helper()
	a, err := env.accounts.Get(context.Background(), community, userID)
	require.NoError(t, err)
	return a.Coins, a.Tokens
}

func TestTradeSettles(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.fund(t, "alice", 100, 0)
	env.fund(t, "bob", 0, 3)
	env.publish(t, "swap", quest.TypeWeekly, quest.KindTradeCompleted, 1, reward.Bundle{XP: 10})

	r, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 60}, reward.Bundle{Tokens: 2})
	require.NoError(t, err)
	assert.Equal(t, trade.StatusPending, r.Status)

	_, err = env.trades.Accept(ctx, r.ID, "alice")
	assert.True(t, apperrors.IsValidation(err))

	settled, err := env.trades.Accept(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, trade.StatusAccepted, settled.Status)
	require.NotNil(t, settled.ResolvedAt)

	coins, tokens := balance(t, env, "alice")
	assert.Equal(t, int64(40), coins)
	assert.Equal(t, int64(2), tokens)
	coins, tokens = balance(t, env, "bob")
	assert.Equal(t, int64(60), coins)
	assert.Equal(t, int64(1), tokens)

	for _, u := range []string{"alice", "bob"} {
		p, err := env.backend.Progress().Get(ctx, quest.ProgressID(community, u, "swap"))
		require.NoError(t, err)
		assert.Equal(t, quest.StatusCompleted, p.Status, u)
	}

	_, err = env.trades.Accept(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestTradeInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.fund(t, "alice", 100, 0)

	// The offerer is short: nothing moves and the trade stays open.
	r, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 500}, reward.Bundle{})
	require.NoError(t, err)
	_, err = env.trades.Accept(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
	stored, err := env.backend.Trades().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusPending, stored.Status)

	// The target is short: the offerer is refunded.
	r, err = env.trades.Propose(ctx, community, "alice", "carol", reward.Bundle{Coins: 50}, reward.Bundle{Tokens: 5})
	require.NoError(t, err)
	_, err = env.trades.Accept(ctx, r.ID, "carol")
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)

	coins, _ := balance(t, env, "alice")
	assert.Equal(t, int64(100), coins)
	coins, _ = balance(t, env, "carol")
	assert.Zero(t, coins)

	stored, err = env.backend.Trades().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusDeclined, stored.Status)
}

func TestTradeProposeCooldown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	r, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{}, reward.Bundle{Coins: 1})
	require.NoError(t, err)

	// Pending trades do not start the cooldown.
	_, err = env.trades.Propose(ctx, community, "alice", "carol", reward.Bundle{}, reward.Bundle{Coins: 1})
	require.NoError(t, err)

	_, err = env.trades.Cancel(ctx, r.ID, "bob")
	assert.True(t, apperrors.IsValidation(err))
	_, err = env.trades.Cancel(ctx, r.ID, "alice")
	require.NoError(t, err)

	_, err = env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{}, reward.Bundle{Coins: 1})
	assert.ErrorIs(t, err, ErrTradeCooldown)

	env.clock.Advance(env.cfg.TradeCooldown())
	_, err = env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{}, reward.Bundle{Coins: 1})
	assert.NoError(t, err)
}

func TestTradeProposeValidates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.trades.Propose(ctx, community, "alice", "alice", reward.Bundle{Coins: 1}, reward.Bundle{})
	assert.True(t, apperrors.IsValidation(err))
	_, err = env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{}, reward.Bundle{})
	assert.True(t, apperrors.IsValidation(err))
	_, err = env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{XP: 10}, reward.Bundle{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTradeDeclineAndExpire(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	declined, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 1}, reward.Bundle{})
	require.NoError(t, err)
	_, err = env.trades.Decline(ctx, declined.ID, "alice")
	assert.True(t, apperrors.IsValidation(err))
	r, err := env.trades.Decline(ctx, declined.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, trade.StatusDeclined, r.Status)

	stale, err := env.trades.Propose(ctx, community, "carol", "dave", reward.Bundle{Coins: 1}, reward.Bundle{})
	require.NoError(t, err)

	n, err := env.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(env.cfg.TradeTTL() + time.Second)
	_, err = env.trades.Accept(ctx, stale.ID, "dave")
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)

	stored, err := env.backend.Trades().Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusExpired, stored.Status)

	n, err = env.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTradeExpireStaleSweep(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, target := range []string{"bob", "carol"} {
		_, err := env.trades.Propose(ctx, community, "alice", target, reward.Bundle{Coins: 1}, reward.Bundle{})
		require.NoError(t, err)
	}
	env.clock.Advance(env.cfg.TradeTTL())

	n, err := env.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// cancellingTrades withdraws the trade right after the first read, the way a
// concurrent /trade respond cancel would.
type cancellingTrades struct {
	trade.Repository
	once sync.Once
	now  time.Time
}

func (r *cancellingTrades) Get(ctx context.Context, id string) (*trade.Record, error) {
	rec, err := r.Repository.Get(ctx, id)
	r.once.Do(func() {
		current, getErr := r.Repository.Get(ctx, id)
		if getErr != nil || current.Resolve(trade.StatusCancelled, r.now) != nil {
			return
		}
		_ = r.Repository.CompareAndSwap(ctx, current, current.Version)
	})
	return rec, err
}

type cancellingBackend struct {
	*memstore.Store
	trades *cancellingTrades
}

func (b cancellingBackend) Trades() trade.Repository { return b.trades }

func TestTradeAcceptLosesToConcurrentCancel(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.fund(t, "alice", 100, 0)
	env.fund(t, "bob", 0, 3)

	r, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 60}, reward.Bundle{Tokens: 2})
	require.NoError(t, err)

	backend := cancellingBackend{Store: env.backend, trades: &cancellingTrades{Repository: env.backend.Trades(), now: env.clock.Now()}}
	racing := NewTradeService(backend, env.accounts, nil, env.cfg)
	racing.now = env.clock.Now

	_, err = racing.Accept(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)

	stored, err := env.backend.Trades().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusCancelled, stored.Status)

	coins, tokens := balance(t, env, "alice")
	assert.Equal(t, int64(100), coins)
	assert.Zero(t, tokens)
	coins, tokens = balance(t, env, "bob")
	assert.Zero(t, coins)
	assert.Equal(t, int64(3), tokens)
}

func TestTradeSettlingBlocksResolution(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	r, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 10}, reward.Bundle{})
	require.NoError(t, err)
	_, err = env.trades.transition(ctx, r.ID, func(r *trade.Record) error { return r.Reserve(epoch) })
	require.NoError(t, err)

	_, err = env.trades.Cancel(ctx, r.ID, "alice")
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
	_, err = env.trades.Decline(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)

	env.clock.Advance(env.cfg.TradeTTL())
	n, err := env.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTradeResumeSettling(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.fund(t, "alice", 100, 0)
	env.fund(t, "bob", 0, 3)
	env.fund(t, "carol", 100, 0)

	// A settlement interrupted after the offer debit.
	interrupted, err := env.trades.Propose(ctx, community, "alice", "bob", reward.Bundle{Coins: 60}, reward.Bundle{Tokens: 2})
	require.NoError(t, err)
	_, err = env.trades.transition(ctx, interrupted.ID, func(r *trade.Record) error { return r.Reserve(env.clock.Now()) })
	require.NoError(t, err)
	_, err = env.accounts.Debit(ctx, "alice", community, trade.GrantID(interrupted.ID, legOfferDebit), interrupted.Offer)
	require.NoError(t, err)

	// A settlement interrupted after refunding the offerer.
	refunded, err := env.trades.Propose(ctx, community, "carol", "dave", reward.Bundle{Coins: 30}, reward.Bundle{Tokens: 9})
	require.NoError(t, err)
	_, err = env.trades.transition(ctx, refunded.ID, func(r *trade.Record) error { return r.Reserve(env.clock.Now()) })
	require.NoError(t, err)
	_, err = env.accounts.Debit(ctx, "carol", community, trade.GrantID(refunded.ID, legOfferDebit), refunded.Offer)
	require.NoError(t, err)
	_, err = env.accounts.ApplyReward(ctx, "carol", community, trade.GrantID(refunded.ID, legOfferRefund), refunded.Offer)
	require.NoError(t, err)

	// Settlements inside the grace are left to the accept in flight.
	n, err := env.trades.ResumeSettling(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(config.SettleGrace)
	n, err = env.trades.ResumeSettling(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := env.backend.Trades().Get(ctx, interrupted.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusAccepted, stored.Status)
	coins, tokens := balance(t, env, "alice")
	assert.Equal(t, int64(40), coins)
	assert.Equal(t, int64(2), tokens)
	coins, tokens = balance(t, env, "bob")
	assert.Equal(t, int64(60), coins)
	assert.Equal(t, int64(1), tokens)

	stored, err = env.backend.Trades().Get(ctx, refunded.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusDeclined, stored.Status)
	coins, _ = balance(t, env, "carol")
	assert.Equal(t, int64(100), coins)
	coins, _ = balance(t, env, "dave")
	assert.Zero(t, coins)
}
