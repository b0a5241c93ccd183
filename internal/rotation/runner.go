package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Weekly job names recorded in the job run table.
const (
	JobStreaks = "streaks"
	JobMissed  = "missed"
)

// JobClaimer records that a weekly job ran so restarts do not repeat it.
type JobClaimer interface {
	Claim(ctx context.Context, job string, weekStart time.Time) (bool, error)
	Release(ctx context.Context, job string, weekStart time.Time) error
}

// ReminderSweeper sends reminders for assignments that are due soon.
type ReminderSweeper interface {
	SendReminders(ctx context.Context) (int, error)
}

type RunnerConfig struct {
	Interval         time.Duration
	ReminderInterval time.Duration
	RunOnStart       bool
}

// Runner periodically applies the weekly jobs and generates assignments.
type Runner struct {
	mu        sync.RWMutex
	service   *Service
	jobs      JobClaimer
	reminders ReminderSweeper
	cfg       RunnerConfig
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRunner creates a runner. reminders may be nil.
func NewRunner(svc *Service, jobs JobClaimer, reminders ReminderSweeper, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Runner{
		service:   svc,
		jobs:      jobs,
		reminders: reminders,
		cfg:       cfg,
		logger:    logger.With("component", "rotation-runner"),
	}
}

// Start begins the runner loop.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		var reminderC <-chan time.Time
		if r.reminders != nil && r.cfg.ReminderInterval > 0 {
			reminderTicker := time.NewTicker(r.cfg.ReminderInterval)
			defer reminderTicker.Stop()
			reminderC = reminderTicker.C
		}

		if r.cfg.RunOnStart {
			r.tick(ctx)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			case <-reminderC:
				r.sweepReminders(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (r *Runner) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Runner) tick(ctx context.Context) {
	weekStart := r.service.CurrentWeek().Start

	if err := r.once(ctx, JobStreaks, weekStart, func(ctx context.Context) error {
		_, err := r.service.UpdateStreaks(ctx)
		return err
	}); err != nil {
		r.logger.Error("weekly streak update", "error", err)
	}

	if err := r.once(ctx, JobMissed, weekStart, func(ctx context.Context) error {
		_, err := r.service.MarkMissed(ctx)
		return err
	}); err != nil {
		r.logger.Error("weekly missed sweep", "error", err)
	}

	if _, err := r.service.RotateAll(ctx); err != nil {
		r.logger.Error("rotate all houses", "error", err)
	}
}

// once runs fn if job has not yet been claimed for the week. A failed run
// releases its claim so the next tick retries.
func (r *Runner) once(ctx context.Context, job string, weekStart time.Time, fn func(context.Context) error) error {
	claimed, err := r.jobs.Claim(ctx, job, weekStart)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	if err := fn(ctx); err != nil {
		if relErr := r.jobs.Release(ctx, job, weekStart); relErr != nil {
			r.logger.Error("release job claim", "job", job, "error", relErr)
		}
		return fmt.Errorf("%s: %w", job, err)
	}
	return nil
}

func (r *Runner) sweepReminders(ctx context.Context) {
	n, err := r.reminders.SendReminders(ctx)
	if err != nil {
		r.logger.Error("send reminders", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("reminders sent", "count", n)
	}
}
