package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(Sweep{Name: "broken", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestRunOnceRunsEverySweep(t *testing.T) {
	var a, b atomic.Int32
	s, err := New(
		Sweep{Name: "a", Interval: time.Hour, Run: func(context.Context) error { a.Add(1); return nil }},
		Sweep{Name: "b", Interval: time.Hour, Run: func(context.Context) error { b.Add(1); return nil }},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestRunOnceReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	s, err := New(
		Sweep{Name: "fails", Interval: time.Hour, Run: func(context.Context) error { return boom }},
		Sweep{Name: "ok", Interval: time.Hour, Run: func(context.Context) error { return nil }},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	assert.ErrorIs(t, s.RunOnce(context.Background()), boom)
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	errTimeout := errors.New("timeout")
	var slowErr error
	s, err := New(
		Sweep{Name: "fails", Interval: time.Hour, Run: func(context.Context) error { return boom }},
		Sweep{Name: "slow", Interval: time.Hour, Run: func(ctx context.Context) error {
			select {
			case <-time.After(100 * time.Millisecond):
				return nil
			case <-ctx.Done():
				slowErr = ctx.Err()
				return slowErr
			}
		}},
		Sweep{Name: "also-fails", Interval: time.Hour, Run: func(context.Context) error { return errTimeout }},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, errTimeout)
	assert.NoError(t, slowErr)
}

func TestRunRecoversPanics(t *testing.T) {
	s, err := New(Sweep{Name: "panics", Interval: time.Hour, Run: func(context.Context) error { panic("bad sweep") }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRunAppliesTimeout(t *testing.T) {
	s, err := New(Sweep{Name: "slow", Interval: time.Hour, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	s.timeout = 10 * time.Millisecond

	assert.ErrorIs(t, s.RunOnce(context.Background()), context.DeadlineExceeded)
}

func TestSweepsSkipMissingServices(t *testing.T) {
	assert.Empty(t, Sweeps(Engine{}, config.Engine{}))

	sweeps := Sweeps(Engine{
		Quests:       &services.QuestService{},
		Trades:       &services.TradeService{},
		Leaderboards: &services.LeaderboardService{},
	}, config.Engine{})

	var names []string
	for _, sw := range sweeps {
		names = append(names, sw.Name)
		assert.Positive(t, sw.Interval, sw.Name)
	}
	assert.Equal(t, []string{"quest-rotation", "claim-redelivery", "match-expiry", "leaderboards"}, names)
}
