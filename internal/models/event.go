package models

import (
	"fmt"
	"time"
)

type EventVariant string

const (
	VariantMajorExam       EventVariant = "major_exam"
	VariantSmallQuiz       EventVariant = "small_quiz"
	VariantStudySuggestion EventVariant = "study_suggestion"
	VariantReviewReminder  EventVariant = "review_reminder"
	VariantAiSuggestion    EventVariant = "ai_suggestion"
)

// IsRoot reports whether the variant can own generated child events.
func (v EventVariant) IsRoot() bool {
	return v == VariantMajorExam || v == VariantSmallQuiz
}

// CalendarEvent is the single canonical schema for every calendar entry.
// Variant-specific fields are optional and only populated for their variant.
type CalendarEvent struct {
	ID        string       `bson:"_id,omitempty" json:"id"`
	UserID    string       `bson:"user_id" json:"user_id"`
	Variant   EventVariant `bson:"variant" json:"variant"`
	Date      time.Time    `bson:"date" json:"date"`
	Title     string       `bson:"title" json:"title"`
	Completed bool         `bson:"completed" json:"completed"`

	// CompletionPayload is the free-form result recorded when the learner
	// marks the event done (score, question count, notes).
	CompletionPayload map[string]interface{} `bson:"completion_payload,omitempty" json:"completion_payload,omitempty"`

	// ParentEventID links generated StudySuggestion and ReviewReminder
	// events back to the exam or quiz that produced them.
	ParentEventID string `bson:"parent_event_id,omitempty" json:"parent_event_id,omitempty"`

	// Study suggestion fields.
	Topics                []string `bson:"topics,omitempty" json:"topics,omitempty"`
	QuestionCount         int      `bson:"question_count,omitempty" json:"question_count,omitempty"`
	Phase                 string   `bson:"phase,omitempty" json:"phase,omitempty"`
	IncludesMistakeReview bool     `bson:"includes_mistake_review,omitempty" json:"includes_mistake_review,omitempty"`

	// Review reminder fields.
	QuestionID string `bson:"question_id,omitempty" json:"question_id,omitempty"`
	CardID     string `bson:"card_id,omitempty" json:"card_id,omitempty"`

	// AI suggestion fields.
	Priority string `bson:"priority,omitempty" json:"priority,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ReminderEventID builds the deterministic document id for a review reminder.
// The id is part of the event store's write contract: reminders are upserted
// by id, so rescheduling the same card for the same day converges instead of
// duplicating.
func ReminderEventID(cardID string, due time.Time) string {
	return fmt.Sprintf("reminder_%s_%s", cardID, due.Format("2006-01-02"))
}

// PlanStep is one day of a generated study plan, counted backwards from the
// root event's date.
type PlanStep struct {
	DaysBefore            int
	QuestionCount         int
	Phase                 string
	IncludesMistakeReview bool
}

// MajorExamPlan is the fixed 10-day ramp generated for a major exam.
var MajorExamPlan = []PlanStep{
	{DaysBefore: 10, QuestionCount: 10, Phase: "Warm-up"},
	{DaysBefore: 9, QuestionCount: 10, Phase: "Warm-up"},
	{DaysBefore: 8, QuestionCount: 10, Phase: "Warm-up"},
	{DaysBefore: 7, QuestionCount: 10, Phase: "Warm-up"},
	{DaysBefore: 6, QuestionCount: 20, Phase: "Consolidation"},
	{DaysBefore: 5, QuestionCount: 20, Phase: "Consolidation"},
	{DaysBefore: 4, QuestionCount: 20, Phase: "Consolidation"},
	{DaysBefore: 3, QuestionCount: 40, Phase: "Sprint"},
	{DaysBefore: 2, QuestionCount: 40, Phase: "Sprint"},
	{DaysBefore: 1, QuestionCount: 40, Phase: "Sprint"},
}

// SmallQuizPlan is the fixed 3-day ramp generated for a small quiz. The final
// day mixes in the learner's recorded mistakes.
var SmallQuizPlan = []PlanStep{
	{DaysBefore: 3, QuestionCount: 5, Phase: "Warm-up"},
	{DaysBefore: 2, QuestionCount: 10, Phase: "Consolidation"},
	{DaysBefore: 1, QuestionCount: 15, Phase: "Sprint", IncludesMistakeReview: true},
}

// PlanFor returns the study-plan template for a root variant, or nil when the
// variant does not generate a plan.
func PlanFor(variant EventVariant) []PlanStep {
	switch variant {
	case VariantMajorExam:
		return MajorExamPlan
	case VariantSmallQuiz:
		return SmallQuizPlan
	default:
		return nil
	}
}

// CalendarDay groups a learner's events under one calendar date for display.
type CalendarDay struct {
	Date   string          `json:"date"`
	Events []CalendarEvent `json:"events"`
}
