package service

import (
	"context"
	"fmt"
	"time"

	"review-service/internal/event"
	"review-service/internal/models"

	"go.uber.org/zap"
)

// DueCardSource is the card-store view the scheduler needs.
type DueCardSource interface {
	FindDueOn(ctx context.Context, userID string, date time.Time) ([]models.ReviewCard, error)
	ActiveUserIDs(ctx context.Context) ([]string, error)
}

// ReminderSink is the event-store view the scheduler writes through.
type ReminderSink interface {
	UpsertMany(ctx context.Context, evs []models.CalendarEvent) (int, error)
}

// SchedulerService materializes review-reminder events for cards due today.
// It is the seam between the card store and the event store.
type SchedulerService struct {
	Cards     DueCardSource
	Events    ReminderSink
	Publisher *event.Publisher
	Logger    *zap.Logger
}

func NewSchedulerService(cards DueCardSource, events ReminderSink, publisher *event.Publisher, logger *zap.Logger) *SchedulerService {
	return &SchedulerService{Cards: cards, Events: events, Publisher: publisher, Logger: logger}
}

// ScheduleDueReviews creates one reminder per card due on exactly the given
// day. Reminders are written by deterministic id, so a retried pass for the
// same day upserts the same documents and the call is idempotent by
// construction. The overdue backlog is deliberately not consulted: a learner
// returning after a long absence gets at most one reminder per card per day.
func (s *SchedulerService) ScheduleDueReviews(ctx context.Context, userID string, today time.Time) (int, error) {
	cards, err := s.Cards.FindDueOn(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("querying cards due for user %s: %w", userID, err)
	}
	if len(cards) == 0 {
		return 0, nil
	}

	day := models.DateOnly(today)
	reminders := make([]models.CalendarEvent, 0, len(cards))
	for _, card := range cards {
		reminders = append(reminders, models.CalendarEvent{
			ID:         models.ReminderEventID(card.ID, day),
			UserID:     userID,
			Variant:    models.VariantReviewReminder,
			Date:       day,
			Title:      fmt.Sprintf("Review question %s", card.QuestionID),
			Topics:     []string{card.Topic, card.Subtopic},
			QuestionID: card.QuestionID,
			CardID:     card.ID,
			CreatedAt:  today,
			UpdatedAt:  today,
		})
	}

	if _, err := s.Events.UpsertMany(ctx, reminders); err != nil {
		return 0, fmt.Errorf("upserting reminders for user %s: %w", userID, err)
	}

	s.Logger.Info("scheduled due reviews",
		zap.String("userID", userID),
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("reminders", len(reminders)))
	if s.Publisher != nil {
		if err := s.Publisher.Publish("scheduler.run", map[string]interface{}{
			"user_id":   userID,
			"date":      day.Format("2006-01-02"),
			"reminders": len(reminders),
		}); err != nil {
			s.Logger.Warn("failed to publish event", zap.String("type", "scheduler.run"), zap.Error(err))
		}
	}
	return len(reminders), nil
}

// ScheduleAllDue runs the daily pass for every learner with active cards.
// One learner's failure is logged and does not stop the others.
func (s *SchedulerService) ScheduleAllDue(ctx context.Context, today time.Time) (int, error) {
	userIDs, err := s.Cards.ActiveUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing learners with active cards: %w", err)
	}
	total := 0
	for _, userID := range userIDs {
		n, err := s.ScheduleDueReviews(ctx, userID, today)
		if err != nil {
			s.Logger.Error("scheduling failed for learner",
				zap.String("userID", userID),
				zap.Error(err))
			continue
		}
		total += n
	}
	return total, nil
}
