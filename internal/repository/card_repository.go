package repository

import (
	"context"
	"errors"
	"time"

	"review-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CardRepository struct {
	Col      *mongo.Collection
	Attempts *mongo.Collection
}

func NewCardRepository(db *mongo.Database) *CardRepository {
	return &CardRepository{
		Col:      db.Collection("review_cards"),
		Attempts: db.Collection("review_attempts"),
	}
}

func (r *CardRepository) FindByID(ctx context.Context, id string) (*models.ReviewCard, error) {
	var card models.ReviewCard
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

// Exists reports whether a card already covers the given mistake. Mistake
// ingestion checks this before creating, so re-running the same graded
// session never duplicates cards.
func (r *CardRepository) Exists(ctx context.Context, userID, questionID, sessionID string) (bool, error) {
	count, err := r.Col.CountDocuments(ctx, bson.M{
		"user_id":     userID,
		"question_id": questionID,
		"session_id":  sessionID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CardRepository) InsertCards(ctx context.Context, cards []models.ReviewCard) error {
	if len(cards) == 0 {
		return nil
	}
	docs := make([]interface{}, len(cards))
	for i := range cards {
		docs[i] = cards[i]
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

// FindDue returns the learner's full overdue backlog, oldest first. Used for
// display, never for reminder scheduling.
func (r *CardRepository) FindDue(ctx context.Context, userID string, asOf time.Time) ([]models.ReviewCard, error) {
	return r.findCards(ctx, bson.M{
		"user_id":          userID,
		"is_active":        true,
		"next_review_date": bson.M{"$lte": models.DateOnly(asOf)},
	}, options.Find().SetSort(bson.M{"next_review_date": 1}))
}

// FindDueOn returns only the cards due on exactly the given calendar day.
// The JIT scheduler consumes this query so one pass never floods a returning
// learner with their whole backlog.
func (r *CardRepository) FindDueOn(ctx context.Context, userID string, date time.Time) ([]models.ReviewCard, error) {
	return r.findCards(ctx, bson.M{
		"user_id":          userID,
		"is_active":        true,
		"next_review_date": models.DateOnly(date),
	}, options.Find().SetSort(bson.M{"next_review_date": 1}))
}

func (r *CardRepository) findCards(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ReviewCard, error) {
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var cards []models.ReviewCard
	for cur.Next(ctx) {
		var card models.ReviewCard
		if err := cur.Decode(&card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ApplyReview persists a review attempt and the card it updates as one
// transaction. Either both writes land or neither does.
func (r *CardRepository) ApplyReview(ctx context.Context, card *models.ReviewCard, attempt *models.ReviewAttempt) error {
	session, err := r.Col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.Attempts.InsertOne(sc, attempt); err != nil {
			return nil, err
		}
		res, err := r.Col.ReplaceOne(sc, bson.M{"_id": card.ID}, card)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, models.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// ActiveUserIDs lists every learner that still has active cards, for the
// daily all-learner scheduling pass.
func (r *CardRepository) ActiveUserIDs(ctx context.Context) ([]string, error) {
	values, err := r.Col.Distinct(ctx, "user_id", bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *CardRepository) CountByStatus(ctx context.Context, userID string) (map[models.CardStatus]int, error) {
	counts := make(map[models.CardStatus]int)
	for _, status := range []models.CardStatus{
		models.CardStatusNew,
		models.CardStatusLearning,
		models.CardStatusReview,
		models.CardStatusGraduated,
	} {
		n, err := r.Col.CountDocuments(ctx, bson.M{"user_id": userID, "status": status})
		if err != nil {
			return nil, err
		}
		counts[status] = int(n)
	}
	return counts, nil
}
