package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"review-service/internal/event"
	"review-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EvictionStore is the event-store view the eviction engine needs.
type EvictionStore interface {
	UserIDs(ctx context.Context) ([]string, error)
	FindBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.CalendarEvent, error)
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
}

// EvictionConfig tunes the nightly pass.
type EvictionConfig struct {
	// RetentionDays is how long past-due review reminders stay before
	// they become evictable.
	RetentionDays int
	// BatchSize caps the number of deletes per bulk write.
	BatchSize int
	// Workers bounds how many learners are processed concurrently.
	Workers int
}

// DefaultEvictionConfig matches the document store's batch limits.
func DefaultEvictionConfig() EvictionConfig {
	return EvictionConfig{
		RetentionDays: 7,
		BatchSize:     500,
		Workers:       4,
	}
}

// EvictionReport summarizes one run. Per-learner failures are collected
// here instead of aborting the pass.
type EvictionReport struct {
	RunID          string            `json:"run_id"`
	Cutoff         time.Time         `json:"cutoff"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	UsersProcessed int               `json:"users_processed"`
	Deleted        int               `json:"deleted"`
	Preserved      int               `json:"preserved"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// EvictionService deletes stale, unfinished calendar events while protecting
// completed events, exams, quizzes, and recently-due reminders.
type EvictionService struct {
	Store     EvictionStore
	Config    EvictionConfig
	Publisher *event.Publisher
	Logger    *zap.Logger
}

func NewEvictionService(store EvictionStore, cfg EvictionConfig, publisher *event.Publisher, logger *zap.Logger) *EvictionService {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultEvictionConfig().RetentionDays
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEvictionConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultEvictionConfig().Workers
	}
	return &EvictionService{Store: store, Config: cfg, Publisher: publisher, Logger: logger}
}

// Preserved reports whether an event already past the cutoff must survive
// eviction. Classification is a pure function of the event's state, so a
// retried run for the same day reaches the same verdicts.
func Preserved(ev models.CalendarEvent, cutoff time.Time, retentionDays int) bool {
	if ev.Completed {
		return true
	}
	if ev.Variant.IsRoot() {
		return true
	}
	if ev.Variant == models.VariantReviewReminder {
		windowStart := models.DateOnly(cutoff).AddDate(0, 0, -retentionDays)
		return !ev.Date.Before(windowStart)
	}
	return false
}

// Run executes one eviction pass over every learner with calendar events.
// Learners are processed concurrently under a bounded worker pool; within a
// learner the query-then-delete sequence is sequential. A learner's failure
// is recorded in the report and never aborts the run.
func (s *EvictionService) Run(ctx context.Context, cutoff time.Time, now time.Time) (*EvictionReport, error) {
	report := &EvictionReport{
		RunID:     uuid.NewString(),
		Cutoff:    models.DateOnly(cutoff),
		StartedAt: now,
		Errors:    make(map[string]string),
	}

	userIDs, err := s.Store.UserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing learners with events: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.Workers)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			deleted, preserved, err := s.evictUser(gctx, userID, cutoff)
			mu.Lock()
			defer mu.Unlock()
			report.UsersProcessed++
			if err != nil {
				s.Logger.Error("eviction failed for learner",
					zap.String("userID", userID),
					zap.Error(err))
				report.Errors[userID] = err.Error()
				return nil
			}
			report.Deleted += deleted
			report.Preserved += preserved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.FinishedAt = time.Now().UTC()

	s.Logger.Info("eviction run finished",
		zap.String("runID", report.RunID),
		zap.Int("users", report.UsersProcessed),
		zap.Int("deleted", report.Deleted),
		zap.Int("preserved", report.Preserved),
		zap.Int("errors", len(report.Errors)))
	if s.Publisher != nil {
		if err := s.Publisher.Publish("eviction.completed", map[string]interface{}{
			"run_id":  report.RunID,
			"users":   report.UsersProcessed,
			"deleted": report.Deleted,
			"errors":  len(report.Errors),
		}); err != nil {
			s.Logger.Warn("failed to publish event", zap.String("type", "eviction.completed"), zap.Error(err))
		}
	}
	return report, nil
}

func (s *EvictionService) evictUser(ctx context.Context, userID string, cutoff time.Time) (deleted, preserved int, err error) {
	events, err := s.Store.FindBefore(ctx, userID, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("querying past events: %w", err)
	}

	var evictable []string
	for _, ev := range events {
		if Preserved(ev, cutoff, s.Config.RetentionDays) {
			preserved++
			continue
		}
		evictable = append(evictable, ev.ID)
	}

	for start := 0; start < len(evictable); start += s.Config.BatchSize {
		end := start + s.Config.BatchSize
		if end > len(evictable) {
			end = len(evictable)
		}
		n, err := s.Store.DeleteIDs(ctx, evictable[start:end])
		if err != nil {
			return deleted, preserved, fmt.Errorf("deleting batch: %w", err)
		}
		deleted += int(n)
	}
	return deleted, preserved, nil
}
