package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"review-service/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeCardStore is an in-memory CardStore and DueCardSource.
type fakeCardStore struct {
	mu        sync.Mutex
	cards     map[string]models.ReviewCard
	attempts  []models.ReviewAttempt
	failApply bool
	failUsers map[string]bool
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{
		cards:     make(map[string]models.ReviewCard),
		failUsers: make(map[string]bool),
	}
}

func (f *fakeCardStore) FindByID(ctx context.Context, id string) (*models.ReviewCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &card, nil
}

func (f *fakeCardStore) Exists(ctx context.Context, userID, questionID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.UserID == userID && c.QuestionID == questionID && c.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCardStore) InsertCards(ctx context.Context, cards []models.ReviewCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cards {
		f.cards[c.ID] = c
	}
	return nil
}

func (f *fakeCardStore) FindDue(ctx context.Context, userID string, asOf time.Time) ([]models.ReviewCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewCard
	for _, c := range f.cards {
		if c.UserID == userID && c.IsActive && !c.NextReviewDate.After(models.DateOnly(asOf)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCardStore) FindDueOn(ctx context.Context, userID string, date time.Time) ([]models.ReviewCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUsers[userID] {
		return nil, errStoreDown
	}
	var out []models.ReviewCard
	for _, c := range f.cards {
		if c.UserID == userID && c.IsActive && c.NextReviewDate.Equal(models.DateOnly(date)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCardStore) ApplyReview(ctx context.Context, card *models.ReviewCard, attempt *models.ReviewAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failApply {
		return errStoreDown
	}
	if _, ok := f.cards[card.ID]; !ok {
		return models.ErrNotFound
	}
	f.cards[card.ID] = *card
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeCardStore) ActiveUserIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, c := range f.cards {
		if c.IsActive && !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	return ids, nil
}

func (f *fakeCardStore) CountByStatus(ctx context.Context, userID string) (map[models.CardStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.CardStatus]int)
	for _, c := range f.cards {
		if c.UserID == userID {
			counts[c.Status]++
		}
	}
	return counts, nil
}

// fakeEventStore is an in-memory EventStore, ReminderSink and EvictionStore.
type fakeEventStore struct {
	mu          sync.Mutex
	events      map[string]models.CalendarEvent
	deleteCalls [][]string
	failUsers   map[string]bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:    make(map[string]models.CalendarEvent),
		failUsers: make(map[string]bool),
	}
}

func (f *fakeEventStore) Insert(ctx context.Context, ev *models.CalendarEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = *ev
	return nil
}

func (f *fakeEventStore) InsertMany(ctx context.Context, evs []models.CalendarEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range evs {
		f.events[ev.ID] = ev
	}
	return nil
}

func (f *fakeEventStore) UpsertMany(ctx context.Context, evs []models.CalendarEvent) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range evs {
		f.events[ev.ID] = ev
	}
	return len(evs), nil
}

func (f *fakeEventStore) FindByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &ev, nil
}

func (f *fakeEventStore) MarkCompleted(ctx context.Context, id string, payload map[string]interface{}, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return models.ErrNotFound
	}
	ev.Completed = true
	ev.CompletionPayload = payload
	ev.UpdatedAt = now
	f.events[id] = ev
	return nil
}

func (f *fakeEventStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) DeleteByParent(ctx context.Context, parentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, ev := range f.events {
		if ev.ParentEventID == parentID {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) FindInRange(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CalendarEvent
	for _, ev := range f.events {
		if ev.UserID != userID {
			continue
		}
		if ev.Date.Before(models.DateOnly(start)) || ev.Date.After(models.DateOnly(end)) {
			continue
		}
		out = append(out, ev)
	}
	sortEventsByDate(out)
	return out, nil
}

func (f *fakeEventStore) FindBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUsers[userID] {
		return nil, errStoreDown
	}
	var out []models.CalendarEvent
	for _, ev := range f.events {
		if ev.UserID == userID && ev.Date.Before(models.DateOnly(cutoff)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, ids)
	var n int64
	for _, id := range ids {
		if _, ok := f.events[id]; ok {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) UserIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, ev := range f.events {
		if !seen[ev.UserID] {
			seen[ev.UserID] = true
			ids = append(ids, ev.UserID)
		}
	}
	return ids, nil
}

func sortEventsByDate(evs []models.CalendarEvent) {
	for i := 1; i < len(evs); i++ {
		for j := i; j > 0 && evs[j].Date.Before(evs[j-1].Date); j-- {
			evs[j], evs[j-1] = evs[j-1], evs[j]
		}
	}
}
