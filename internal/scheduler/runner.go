// Package scheduler drives the daily maintenance pass: just-in-time reminder
// materialization and calendar-event eviction.
package scheduler

import (
	"context"
	"time"

	"review-service/internal/models"
	"review-service/internal/service"

	"go.uber.org/zap"
)

// RunnerConfig controls when the daily pass fires.
type RunnerConfig struct {
	// Hour is the local hour of day (0-23) the pass runs at.
	Hour int
	// CheckInterval is how often the runner polls the clock.
	CheckInterval time.Duration
}

// DefaultRunnerConfig fires at 02:00 and polls once a minute.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Hour:          2,
		CheckInterval: time.Minute,
	}
}

// Runner wakes once per day at the configured hour, schedules the day's
// review reminders for every learner, and evicts stale calendar events.
type Runner struct {
	jit      *service.SchedulerService
	eviction *service.EvictionService
	config   RunnerConfig
	logger   *zap.Logger
	stopCh   chan struct{}
}

func NewRunner(jit *service.SchedulerService, eviction *service.EvictionService, config RunnerConfig, logger *zap.Logger) *Runner {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultRunnerConfig().CheckInterval
	}
	return &Runner{
		jit:      jit,
		eviction: eviction,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the polling loop. Call from a goroutine.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("daily runner started",
		zap.Int("hour", r.config.Hour),
		zap.Duration("checkInterval", r.config.CheckInterval))

	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("daily runner stopping (context done)")
			return
		case <-r.stopCh:
			r.logger.Info("daily runner stopping (stop signal)")
			return
		case <-ticker.C:
			now := time.Now()
			if now.Hour() != r.config.Hour {
				continue
			}
			if models.DateOnly(now).Equal(models.DateOnly(lastRun)) {
				continue
			}
			lastRun = now
			r.RunOnce(ctx, now)
		}
	}
}

// RunOnce executes one daily pass: reminders first, then eviction with a
// cutoff of yesterday. Failures are logged; the next day's pass retries
// safely because both operations are idempotent for a given day.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) {
	scheduled, err := r.jit.ScheduleAllDue(ctx, now)
	if err != nil {
		r.logger.Error("daily reminder pass failed", zap.Error(err))
	} else {
		r.logger.Info("daily reminder pass finished", zap.Int("scheduled", scheduled))
	}

	cutoff := models.DateOnly(now).AddDate(0, 0, -1)
	report, err := r.eviction.Run(ctx, cutoff, now)
	if err != nil {
		r.logger.Error("eviction pass failed", zap.Error(err))
		return
	}
	r.logger.Info("eviction pass finished",
		zap.String("runID", report.RunID),
		zap.Int("deleted", report.Deleted),
		zap.Int("preserved", report.Preserved))
}

// Stop signals the runner to shut down.
func (r *Runner) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
}
