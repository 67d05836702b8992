package service

import (
	"context"
	"fmt"
	"time"

	"review-service/internal/event"
	"review-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventStore is the subset of calendar persistence the service needs.
type EventStore interface {
	Insert(ctx context.Context, ev *models.CalendarEvent) error
	InsertMany(ctx context.Context, evs []models.CalendarEvent) error
	FindByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	MarkCompleted(ctx context.Context, id string, payload map[string]interface{}, now time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByParent(ctx context.Context, parentID string) (int64, error)
	FindInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error)
}

type EventService struct {
	Store     EventStore
	Publisher *event.Publisher
	Logger    *zap.Logger
}

func NewEventService(store EventStore, publisher *event.Publisher, logger *zap.Logger) *EventService {
	return &EventService{Store: store, Publisher: publisher, Logger: logger}
}

// AiCandidate is one suggestion from the recommendation feed, persisted as an
// AiSuggestion event when the learner accepts it.
type AiCandidate struct {
	Title    string    `json:"title"`
	Topic    string    `json:"topic"`
	Subtopic string    `json:"subtopic"`
	Date     time.Time `json:"date"`
	Priority string    `json:"priority"`
}

// CreateRootEvent persists a major exam or small quiz and generates its study
// plan as child StudySuggestion events in one batch.
func (s *EventService) CreateRootEvent(ctx context.Context, userID string, variant models.EventVariant, date time.Time, title string, topics []string, now time.Time) (*models.CalendarEvent, error) {
	if !variant.IsRoot() {
		return nil, fmt.Errorf("variant %s cannot own a study plan: %w", variant, models.ErrInvalidState)
	}

	root := &models.CalendarEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Variant:   variant,
		Date:      models.DateOnly(date),
		Title:     title,
		Topics:    topics,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Insert(ctx, root); err != nil {
		return nil, fmt.Errorf("inserting root event: %w", err)
	}

	plan := s.generateStudyPlan(root, now)
	if err := s.Store.InsertMany(ctx, plan); err != nil {
		return nil, fmt.Errorf("inserting study plan for event %s: %w", root.ID, err)
	}

	s.Logger.Info("created root event with study plan",
		zap.String("eventID", root.ID),
		zap.String("userID", userID),
		zap.String("variant", string(variant)),
		zap.Int("planDays", len(plan)))
	s.publish("calendar.created", map[string]interface{}{
		"event_id": root.ID,
		"user_id":  userID,
		"variant":  variant,
	})
	return root, nil
}

// generateStudyPlan expands the fixed day-offset template for the root's
// variant. Every generated suggestion carries the root's id so a cascade
// delete can find it.
func (s *EventService) generateStudyPlan(root *models.CalendarEvent, now time.Time) []models.CalendarEvent {
	steps := models.PlanFor(root.Variant)
	plan := make([]models.CalendarEvent, 0, len(steps))
	for _, step := range steps {
		plan = append(plan, models.CalendarEvent{
			ID:                    uuid.NewString(),
			UserID:                root.UserID,
			Variant:               models.VariantStudySuggestion,
			Date:                  root.Date.AddDate(0, 0, -step.DaysBefore),
			Title:                 fmt.Sprintf("%s: %d questions for %s", step.Phase, step.QuestionCount, root.Title),
			ParentEventID:         root.ID,
			Topics:                root.Topics,
			QuestionCount:         step.QuestionCount,
			Phase:                 step.Phase,
			IncludesMistakeReview: step.IncludesMistakeReview,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
	}
	return plan
}

// AcceptAiSuggestion persists a recommendation-feed candidate as an
// AiSuggestion event.
func (s *EventService) AcceptAiSuggestion(ctx context.Context, userID string, candidate AiCandidate, now time.Time) (*models.CalendarEvent, error) {
	ev := &models.CalendarEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Variant:   models.VariantAiSuggestion,
		Date:      models.DateOnly(candidate.Date),
		Title:     candidate.Title,
		Topics:    []string{candidate.Topic, candidate.Subtopic},
		Priority:  candidate.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("inserting ai suggestion: %w", err)
	}
	s.publish("calendar.created", map[string]interface{}{
		"event_id": ev.ID,
		"user_id":  userID,
		"variant":  ev.Variant,
	})
	return ev, nil
}

func (s *EventService) MarkCompleted(ctx context.Context, id string, payload map[string]interface{}, now time.Time) error {
	if err := s.Store.MarkCompleted(ctx, id, payload, now); err != nil {
		return err
	}
	s.publish("calendar.completed", map[string]interface{}{"event_id": id})
	return nil
}

// Delete removes an event. With cascade set and a root variant, every child
// sharing its parent_event_id goes in the same call; the count of deleted
// children is returned.
func (s *EventService) Delete(ctx context.Context, id string, cascade bool) (int64, error) {
	ev, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return 0, err
	}
	var children int64
	if cascade && ev.Variant.IsRoot() {
		children, err = s.Store.DeleteByParent(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("cascading delete of event %s: %w", id, err)
		}
	}
	s.Logger.Info("deleted event",
		zap.String("eventID", id),
		zap.Bool("cascade", cascade),
		zap.Int64("children", children))
	s.publish("calendar.deleted", map[string]interface{}{
		"event_id": id,
		"cascade":  cascade,
		"children": children,
	})
	return children, nil
}

// EventsInRange returns a learner's events between start and end inclusive,
// grouped by calendar day for the calendar view.
func (s *EventService) EventsInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarDay, error) {
	evs, err := s.Store.FindInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	var days []models.CalendarDay
	for _, ev := range evs {
		key := ev.Date.Format("2006-01-02")
		if len(days) == 0 || days[len(days)-1].Date != key {
			days = append(days, models.CalendarDay{Date: key})
		}
		days[len(days)-1].Events = append(days[len(days)-1].Events, ev)
	}
	return days, nil
}

func (s *EventService) publish(eventType string, payload map[string]interface{}) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(eventType, payload); err != nil {
		s.Logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
