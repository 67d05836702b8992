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

type EventRepository struct {
	Col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{Col: db.Collection("calendar_events")}
}

func (r *EventRepository) Insert(ctx context.Context, ev *models.CalendarEvent) error {
	_, err := r.Col.InsertOne(ctx, ev)
	return err
}

func (r *EventRepository) InsertMany(ctx context.Context, evs []models.CalendarEvent) error {
	if len(evs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(evs))
	for i := range evs {
		docs[i] = evs[i]
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

// UpsertMany replaces-or-creates events by their document id in one bulk
// write. Reminder events carry deterministic ids, so a retried scheduling
// pass converges on the same documents instead of duplicating them.
func (r *EventRepository) UpsertMany(ctx context.Context, evs []models.CalendarEvent) (int, error) {
	if len(evs) == 0 {
		return 0, nil
	}
	writes := make([]mongo.WriteModel, len(evs))
	for i := range evs {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": evs[i].ID}).
			SetReplacement(evs[i]).
			SetUpsert(true)
	}
	res, err := r.Col.BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	var ev models.CalendarEvent
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&ev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func (r *EventRepository) MarkCompleted(ctx context.Context, id string, payload map[string]interface{}, now time.Time) error {
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"completed":          true,
		"completion_payload": payload,
		"updated_at":         now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByParent removes every child event generated from a root event, in
// one batch.
func (r *EventRepository) DeleteByParent(ctx context.Context, parentID string) (int64, error) {
	res, err := r.Col.DeleteMany(ctx, bson.M{"parent_event_id": parentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *EventRepository) FindInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error) {
	return r.findEvents(ctx, bson.M{
		"user_id": userID,
		"date": bson.M{
			"$gte": models.DateOnly(start),
			"$lte": models.DateOnly(end),
		},
	})
}

// FindBefore returns a learner's events strictly older than the cutoff day,
// the candidate set for one eviction pass.
func (r *EventRepository) FindBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.CalendarEvent, error) {
	return r.findEvents(ctx, bson.M{
		"user_id": userID,
		"date":    bson.M{"$lt": models.DateOnly(cutoff)},
	})
}

func (r *EventRepository) findEvents(ctx context.Context, filter bson.M) ([]models.CalendarEvent, error) {
	cur, err := r.Col.Find(ctx, filter, options.Find().SetSort(bson.M{"date": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var evs []models.CalendarEvent
	for cur.Next(ctx) {
		var ev models.CalendarEvent
		if err := cur.Decode(&ev); err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

// DeleteIDs removes the given events in one bulk write. Callers chunk the id
// list; this method issues exactly one batch.
func (r *EventRepository) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	writes := make([]mongo.WriteModel, len(ids))
	for i, id := range ids {
		writes[i] = mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id})
	}
	res, err := r.Col.BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UserIDs lists every learner that has calendar events, for the nightly
// eviction pass.
func (r *EventRepository) UserIDs(ctx context.Context) ([]string, error) {
	values, err := r.Col.Distinct(ctx, "user_id", bson.M{})
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
