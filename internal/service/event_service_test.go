package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"review-service/internal/models"

	"go.uber.org/zap"
)

func newEventService(store *fakeEventStore) *EventService {
	return NewEventService(store, nil, zap.NewNop())
}

func childrenOf(store *fakeEventStore, parentID string) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, ev := range store.events {
		if ev.ParentEventID == parentID {
			out = append(out, ev)
		}
	}
	return out
}

func TestCreateRootEventGeneratesExamPlan(t *testing.T) {
	store := newFakeEventStore()
	svc := newEventService(store)
	examDate := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	root, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantMajorExam, examDate, "Final exam", []string{"algebra"}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := childrenOf(store, root.ID)
	if len(plan) != 10 {
		t.Fatalf("expected 10 study suggestions, got %d", len(plan))
	}
	phaseCounts := map[string]int{}
	for _, step := range plan {
		if step.Variant != models.VariantStudySuggestion {
			t.Errorf("child has variant %s", step.Variant)
		}
		if step.Date.Before(examDate.AddDate(0, 0, -10)) || !step.Date.Before(examDate) {
			t.Errorf("study day %v outside the 10-day window before %v", step.Date, examDate)
		}
		phaseCounts[step.Phase]++
		switch step.Phase {
		case "Warm-up":
			if step.QuestionCount != 10 {
				t.Errorf("warm-up day should have 10 questions, got %d", step.QuestionCount)
			}
		case "Consolidation":
			if step.QuestionCount != 20 {
				t.Errorf("consolidation day should have 20 questions, got %d", step.QuestionCount)
			}
		case "Sprint":
			if step.QuestionCount != 40 {
				t.Errorf("sprint day should have 40 questions, got %d", step.QuestionCount)
			}
		default:
			t.Errorf("unexpected phase %q", step.Phase)
		}
	}
	if phaseCounts["Warm-up"] != 4 || phaseCounts["Consolidation"] != 3 || phaseCounts["Sprint"] != 3 {
		t.Errorf("unexpected phase distribution: %v", phaseCounts)
	}
}

func TestCreateRootEventGeneratesQuizPlan(t *testing.T) {
	store := newFakeEventStore()
	svc := newEventService(store)
	quizDate := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	root, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantSmallQuiz, quizDate, "Unit quiz", nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := childrenOf(store, root.ID)
	if len(plan) != 3 {
		t.Fatalf("expected 3 study suggestions, got %d", len(plan))
	}
	wantCounts := map[string]int{
		"2024-06-28": 5,
		"2024-06-29": 10,
		"2024-06-30": 15,
	}
	for _, step := range plan {
		day := step.Date.Format("2006-01-02")
		if step.QuestionCount != wantCounts[day] {
			t.Errorf("day %s: expected %d questions, got %d", day, wantCounts[day], step.QuestionCount)
		}
		if day == "2024-06-30" && !step.IncludesMistakeReview {
			t.Error("final quiz-prep day must include mistake review")
		}
	}
}

func TestCreateRootEventRejectsNonRootVariant(t *testing.T) {
	svc := newEventService(newFakeEventStore())
	_, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantStudySuggestion, testNow, "bad", nil, testNow)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestCascadeDeleteRemovesOnlyOwnChildren(t *testing.T) {
	store := newFakeEventStore()
	svc := newEventService(store)
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	examA, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantMajorExam, date, "Exam A", nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	examB, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantMajorExam, date, "Exam B", nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	children, err := svc.Delete(context.Background(), examA.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if children != 10 {
		t.Errorf("expected 10 children deleted, got %d", children)
	}
	if _, ok := store.events[examA.ID]; ok {
		t.Error("root event should be gone")
	}
	if len(childrenOf(store, examA.ID)) != 0 {
		t.Error("exam A children should be gone")
	}
	if len(childrenOf(store, examB.ID)) != 10 {
		t.Error("exam B children must be untouched")
	}
}

func TestDeleteWithoutCascadeKeepsChildren(t *testing.T) {
	store := newFakeEventStore()
	svc := newEventService(store)
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	quiz, err := svc.CreateRootEvent(context.Background(), "user-1", models.VariantSmallQuiz, date, "Quiz", nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children, err := svc.Delete(context.Background(), quiz.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if children != 0 {
		t.Errorf("expected 0 children deleted, got %d", children)
	}
	if len(childrenOf(store, quiz.ID)) != 3 {
		t.Error("children must survive a non-cascade delete")
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc := newEventService(newFakeEventStore())
	_, err := svc.Delete(context.Background(), "missing", true)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkCompleted(t *testing.T) {
	store := newFakeEventStore()
	store.events["e1"] = models.CalendarEvent{ID: "e1", UserID: "user-1"}
	svc := newEventService(store)

	err := svc.MarkCompleted(context.Background(), "e1", map[string]interface{}{"score": 0.9}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.events["e1"].Completed {
		t.Error("event should be completed")
	}
	if err := svc.MarkCompleted(context.Background(), "missing", nil, testNow); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsInRangeGroupsByDay(t *testing.T) {
	store := newFakeEventStore()
	store.events["e1"] = models.CalendarEvent{ID: "e1", UserID: "u", Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)}
	store.events["e2"] = models.CalendarEvent{ID: "e2", UserID: "u", Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)}
	store.events["e3"] = models.CalendarEvent{ID: "e3", UserID: "u", Date: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)}
	store.events["e4"] = models.CalendarEvent{ID: "e4", UserID: "u", Date: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)}
	store.events["e5"] = models.CalendarEvent{ID: "e5", UserID: "other", Date: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)}
	svc := newEventService(store)

	days, err := svc.EventsInRange(context.Background(), "u",
		time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != "2024-06-10" || len(days[0].Events) != 2 {
		t.Errorf("unexpected first day: %s with %d events", days[0].Date, len(days[0].Events))
	}
	if days[1].Date != "2024-06-12" || len(days[1].Events) != 1 {
		t.Errorf("unexpected second day: %s with %d events", days[1].Date, len(days[1].Events))
	}
}
