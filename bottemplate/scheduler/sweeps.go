package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/bottemplate/services"
)

// Engine groups the services the standard sweeps drive. Nil services are
// skipped.
type Engine struct {
	Quests       *services.QuestService
	Rankings     *services.RankingService
	Trades       *services.TradeService
	Leaderboards *services.LeaderboardService
	Voice        *services.VoiceService
}

// Sweeps returns the standard maintenance sweeps for e.
func Sweeps(e Engine, cfg config.Engine) []Sweep {
	cfg = cfg.WithDefaults()
	var sweeps []Sweep

	if e.Quests != nil {
		sweeps = append(sweeps,
			Sweep{
				Name:     "quest-rotation",
				Interval: cfg.SweepInterval(),
				Run: func(ctx context.Context) error {
					rotateErr := e.Quests.RotateAll(ctx)
					_, expireErr := e.Quests.ExpireQuests(ctx)
					return errors.Join(rotateErr, expireErr)
				},
			},
			Sweep{
				Name:     "claim-redelivery",
				Interval: cfg.SweepInterval(),
				Run: func(ctx context.Context) error {
					_, err := e.Quests.RedeliverClaims(ctx)
					return err
				},
			},
		)
	}

	if e.Rankings != nil || e.Trades != nil {
		sweeps = append(sweeps, Sweep{
			Name:     "match-expiry",
			Interval: cfg.SweepInterval(),
			Run: func(ctx context.Context) error {
				var errs []error
				if e.Rankings != nil {
					if _, err := e.Rankings.ExpireStaleMatches(ctx); err != nil {
						errs = append(errs, err)
					}
					if _, err := e.Rankings.ApplyUnapplied(ctx); err != nil {
						errs = append(errs, err)
					}
				}
				if e.Trades != nil {
					if _, err := e.Trades.ExpireStale(ctx); err != nil {
						errs = append(errs, err)
					}
					if _, err := e.Trades.ResumeSettling(ctx); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			},
		})
	}

	if e.Leaderboards != nil {
		sweeps = append(sweeps, Sweep{
			Name:     "leaderboards",
			Interval: cfg.AggregateInterval(),
			Run:      e.Leaderboards.Refresh,
		})
	}

	if e.Voice != nil {
		sweeps = append(sweeps, Sweep{
			Name:     "voice-flush",
			Interval: cfg.VoiceFlushInterval(),
			Run: func(ctx context.Context) error {
				return e.Voice.Flush(ctx, time.Now())
			},
		})
	}
	return sweeps
}
