package service

import (
	"context"
	"fmt"
	"time"

	"review-service/internal/event"
	"review-service/internal/models"
	"review-service/internal/srs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardStore is the subset of card persistence the service needs.
type CardStore interface {
	FindByID(ctx context.Context, id string) (*models.ReviewCard, error)
	Exists(ctx context.Context, userID, questionID, sessionID string) (bool, error)
	InsertCards(ctx context.Context, cards []models.ReviewCard) error
	FindDue(ctx context.Context, userID string, asOf time.Time) ([]models.ReviewCard, error)
	FindDueOn(ctx context.Context, userID string, date time.Time) ([]models.ReviewCard, error)
	ApplyReview(ctx context.Context, card *models.ReviewCard, attempt *models.ReviewAttempt) error
	CountByStatus(ctx context.Context, userID string) (map[models.CardStatus]int, error)
}

type CardService struct {
	Store     CardStore
	Params    *srs.Params
	Publisher *event.Publisher
	Logger    *zap.Logger
}

func NewCardService(store CardStore, params *srs.Params, publisher *event.Publisher, logger *zap.Logger) *CardService {
	if params == nil {
		params = srs.DefaultParams()
	}
	return &CardService{Store: store, Params: params, Publisher: publisher, Logger: logger}
}

// CreateCardsFromMistakes creates one New card per previously-unseen
// (question, session) mistake. Re-running the same graded session is a no-op
// for questions that already have a card.
func (s *CardService) CreateCardsFromMistakes(ctx context.Context, userID string, missed []models.MissedQuestion, sessionID string, now time.Time) ([]models.ReviewCard, error) {
	var created []models.ReviewCard
	for _, q := range missed {
		exists, err := s.Store.Exists(ctx, userID, q.QuestionID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("checking existing card for question %s: %w", q.QuestionID, err)
		}
		if exists {
			continue
		}
		created = append(created, models.ReviewCard{
			ID:               uuid.NewString(),
			UserID:           userID,
			QuestionID:       q.QuestionID,
			SessionID:        sessionID,
			Topic:            q.Topic,
			Subtopic:         q.Subtopic,
			Interval:         1,
			ConfidenceFactor: s.Params.MaxConfidence,
			RepetitionCount:  0,
			NextReviewDate:   models.DateOnly(now).AddDate(0, 0, 1),
			Status:           models.CardStatusNew,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	if err := s.Store.InsertCards(ctx, created); err != nil {
		return nil, fmt.Errorf("inserting cards: %w", err)
	}
	if len(created) > 0 {
		s.Logger.Info("created review cards from mistakes",
			zap.String("userID", userID),
			zap.String("sessionID", sessionID),
			zap.Int("created", len(created)),
			zap.Int("skipped", len(missed)-len(created)))
		s.publish("card.created", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
			"count":      len(created),
		})
	}
	return created, nil
}

// SubmitReview records one review outcome: it computes the card's next
// scheduling state and persists the audit attempt plus the updated card
// atomically. A graduated card is deactivated in the same write.
func (s *CardService) SubmitReview(ctx context.Context, cardID string, wasCorrect bool, now time.Time) (*models.ReviewCard, error) {
	card, err := s.Store.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	before := srs.CardState{
		Interval:         card.Interval,
		ConfidenceFactor: card.ConfidenceFactor,
		RepetitionCount:  card.RepetitionCount,
		Status:           card.Status,
		NextReviewDate:   card.NextReviewDate,
	}
	if !s.Params.Validate(before) {
		return nil, fmt.Errorf("card %s has out-of-range scheduling state: %w", cardID, models.ErrInvalidState)
	}

	after := s.Params.NextState(before, wasCorrect, now)

	updated := *card
	updated.Interval = after.Interval
	updated.ConfidenceFactor = after.ConfidenceFactor
	updated.RepetitionCount = after.RepetitionCount
	updated.NextReviewDate = after.NextReviewDate
	updated.Status = after.Status
	updated.TotalAttempts++
	if wasCorrect {
		updated.CorrectAttempts++
	} else {
		updated.FailedAttempts++
	}
	updated.LastReviewedAt = now
	updated.UpdatedAt = now
	if after.Status == models.CardStatusGraduated {
		updated.IsActive = false
	}

	attempt := &models.ReviewAttempt{
		ID:               uuid.NewString(),
		CardID:           card.ID,
		UserID:           card.UserID,
		QuestionID:       card.QuestionID,
		WasCorrect:       wasCorrect,
		IntervalBefore:   before.Interval,
		IntervalAfter:    after.Interval,
		ConfidenceBefore: before.ConfidenceFactor,
		ConfidenceAfter:  after.ConfidenceFactor,
		RepetitionBefore: before.RepetitionCount,
		RepetitionAfter:  after.RepetitionCount,
		StatusBefore:     before.Status,
		StatusAfter:      after.Status,
		SubmittedAt:      now,
	}

	if err := s.Store.ApplyReview(ctx, &updated, attempt); err != nil {
		return nil, fmt.Errorf("applying review for card %s: %w", cardID, err)
	}

	s.publish("review.submitted", map[string]interface{}{
		"card_id":     card.ID,
		"user_id":     card.UserID,
		"was_correct": wasCorrect,
	})
	if updated.Status == models.CardStatusGraduated {
		s.Logger.Info("card graduated",
			zap.String("cardID", card.ID),
			zap.String("userID", card.UserID))
		s.publish("card.graduated", map[string]interface{}{
			"card_id": card.ID,
			"user_id": card.UserID,
		})
	}
	return &updated, nil
}

// DueCards returns the learner's overdue backlog up to asOf, oldest first.
func (s *CardService) DueCards(ctx context.Context, userID string, asOf time.Time) ([]models.ReviewCard, error) {
	return s.Store.FindDue(ctx, userID, asOf)
}

// CardsDueOn returns only the cards due on exactly the given day.
func (s *CardService) CardsDueOn(ctx context.Context, userID string, date time.Time) ([]models.ReviewCard, error) {
	return s.Store.FindDueOn(ctx, userID, date)
}

// Stats summarizes a learner's cards for the progress view.
func (s *CardService) Stats(ctx context.Context, userID string, now time.Time) (*models.CardStats, error) {
	counts, err := s.Store.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	due, err := s.Store.FindDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	stats := &models.CardStats{
		UserID:    userID,
		ByStatus:  counts,
		Due:       len(due),
		Graduated: counts[models.CardStatusGraduated],
	}
	for _, n := range counts {
		stats.Total += n
	}
	stats.Active = stats.Total - stats.Graduated
	return stats, nil
}

func (s *CardService) publish(eventType string, payload map[string]interface{}) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(eventType, payload); err != nil {
		s.Logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
