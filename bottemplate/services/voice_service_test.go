package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/progression/internal/domain/session"
)

func TestVoiceFlushAndLeave(t *testing.T) {
	rec := &recorder{}
	voice := NewVoiceService(session.NewTracker(), rec)
	ctx := context.Background()

	require.NoError(t, voice.Join(ctx, community, "u1", epoch))
	require.NoError(t, voice.Join(ctx, community, "u1", epoch.Add(time.Minute)))
	assert.Equal(t, 1, voice.Active())

	require.NoError(t, voice.Flush(ctx, epoch.Add(600*time.Second)))
	total, err := voice.Leave(ctx, community, "u1", epoch.Add(900*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, total)
	assert.Equal(t, []int64{10, 5}, rec.minutes())
	assert.Zero(t, voice.Active())
}

func TestVoiceCarriesPartialMinutes(t *testing.T) {
	rec := &recorder{}
	voice := NewVoiceService(session.NewTracker(), rec)
	ctx := context.Background()

	require.NoError(t, voice.Join(ctx, community, "u1", epoch))
	require.NoError(t, voice.Flush(ctx, epoch.Add(90*time.Second)))
	require.NoError(t, voice.Flush(ctx, epoch.Add(180*time.Second)))

	assert.Equal(t, []int64{1, 2}, rec.minutes())
}

func TestVoiceLeaveDropsRemainder(t *testing.T) {
	rec := &recorder{}
	voice := NewVoiceService(session.NewTracker(), rec)
	ctx := context.Background()

	require.NoError(t, voice.Join(ctx, community, "u1", epoch))
	_, err := voice.Leave(ctx, community, "u1", epoch.Add(50*time.Second))
	require.NoError(t, err)

	// A fresh session starts without the old 50 seconds.
	require.NoError(t, voice.Join(ctx, community, "u1", epoch.Add(time.Hour)))
	_, err = voice.Leave(ctx, community, "u1", epoch.Add(time.Hour+30*time.Second))
	require.NoError(t, err)

	assert.Empty(t, rec.minutes())

	total, err := voice.Leave(ctx, community, "ghost", epoch)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestVoiceCreditsProgression(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.voice.Join(ctx, community, "u1", epoch))
	_, err := env.voice.Leave(ctx, community, "u1", epoch.Add(4*time.Minute))
	require.NoError(t, err)

	acct, err := env.accounts.Get(ctx, community, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4*env.cfg.VoiceXPPerMinute, acct.XP)
}
