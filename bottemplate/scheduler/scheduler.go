// Package scheduler runs the engine's periodic maintenance. Every sweep is
// idempotent, so a sweep that overlaps a restart or another replica only
// repeats work that is already done.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// Sweep is one named periodic task.
type Sweep struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	sched   gocron.Scheduler
	sweeps  []Sweep
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(sweeps ...Sweep) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:   sched,
		sweeps:  sweeps,
		timeout: config.SweepTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, sw := range sweeps {
		if sw.Interval <= 0 {
			cancel()
			return nil, fmt.Errorf("sweep %s: interval must be positive", sw.Name)
		}
		_, err := sched.NewJob(
			gocron.DurationJob(sw.Interval),
			gocron.NewTask(func() {
				_ = s.run(s.ctx, sw)
			}),
			gocron.WithName(sw.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to schedule sweep %s: %w", sw.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	slog.Info("Scheduler started",
		slog.String("type", "engine"),
		slog.Int("sweeps", len(s.sweeps)))
}

// Stop cancels running sweeps and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.sched.Shutdown()
}

// RunOnce runs every sweep concurrently, one time. A failing sweep never
// cancels its siblings; every failure is reported.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, len(s.sweeps))
	for i, sw := range s.sweeps {
		g.Go(func() error {
			errs[i] = s.run(ctx, sw)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, sw Sweep) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep %s panicked: %v", sw.Name, r)
			slog.Error("Sweep panicked",
				slog.String("type", "engine"),
				slog.String("sweep", sw.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	err = sw.Run(ctx)
	switch {
	case err == nil:
		slog.Debug("Sweep finished",
			slog.String("type", "engine"),
			slog.String("sweep", sw.Name),
			slog.Duration("took", time.Since(start)))
	case errors.Is(err, context.Canceled):
		slog.Debug("Sweep cancelled",
			slog.String("type", "engine"),
			slog.String("sweep", sw.Name))
	default:
		slog.Error("Sweep failed",
			slog.String("type", "engine"),
			slog.String("sweep", sw.Name),
			slog.Duration("took", time.Since(start)),
			slog.Any("error", err))
	}
	return err
}
