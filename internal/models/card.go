package models

import "time"

type CardStatus string

const (
	CardStatusNew       CardStatus = "new"
	CardStatusLearning  CardStatus = "learning"
	CardStatusReview    CardStatus = "review"
	CardStatusGraduated CardStatus = "graduated"
)

// ReviewCard is the spaced-repetition record for one question a learner got
// wrong. One card exists per (user, question, session) triple.
type ReviewCard struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	UserID     string `bson:"user_id" json:"user_id"`
	QuestionID string `bson:"question_id" json:"question_id"`
	SessionID  string `bson:"session_id" json:"session_id"`
	Topic      string `bson:"topic" json:"topic"`
	Subtopic   string `bson:"subtopic" json:"subtopic"`

	Interval         int        `bson:"interval" json:"interval"`
	ConfidenceFactor float64    `bson:"confidence_factor" json:"confidence_factor"`
	RepetitionCount  int        `bson:"repetition_count" json:"repetition_count"`
	NextReviewDate   time.Time  `bson:"next_review_date" json:"next_review_date"`
	Status           CardStatus `bson:"status" json:"status"`

	TotalAttempts   int       `bson:"total_attempts" json:"total_attempts"`
	CorrectAttempts int       `bson:"correct_attempts" json:"correct_attempts"`
	FailedAttempts  int       `bson:"failed_attempts" json:"failed_attempts"`
	LastReviewedAt  time.Time `bson:"last_reviewed_at,omitempty" json:"last_reviewed_at,omitempty"`

	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ReviewAttempt is the immutable audit record of one submitted review. It
// captures the card's scheduling state on both sides of the attempt and is
// written in the same transaction as the card update.
type ReviewAttempt struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	CardID     string `bson:"card_id" json:"card_id"`
	UserID     string `bson:"user_id" json:"user_id"`
	QuestionID string `bson:"question_id" json:"question_id"`
	WasCorrect bool   `bson:"was_correct" json:"was_correct"`

	IntervalBefore   int        `bson:"interval_before" json:"interval_before"`
	IntervalAfter    int        `bson:"interval_after" json:"interval_after"`
	ConfidenceBefore float64    `bson:"confidence_before" json:"confidence_before"`
	ConfidenceAfter  float64    `bson:"confidence_after" json:"confidence_after"`
	RepetitionBefore int        `bson:"repetition_before" json:"repetition_before"`
	RepetitionAfter  int        `bson:"repetition_after" json:"repetition_after"`
	StatusBefore     CardStatus `bson:"status_before" json:"status_before"`
	StatusAfter      CardStatus `bson:"status_after" json:"status_after"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}

// MissedQuestion is one graded-quiz mistake handed over by the scoring
// service, carrying the question bank's topic labels.
type MissedQuestion struct {
	QuestionID string `bson:"question_id" json:"question_id"`
	Topic      string `bson:"topic" json:"topic"`
	Subtopic   string `bson:"subtopic" json:"subtopic"`
}

// CardStats summarizes a learner's cards for display.
type CardStats struct {
	UserID    string             `json:"user_id"`
	Total     int                `json:"total"`
	Active    int                `json:"active"`
	Due       int                `json:"due"`
	ByStatus  map[CardStatus]int `json:"by_status"`
	Graduated int                `json:"graduated"`
}

// DateOnly truncates a timestamp to its calendar day at midnight UTC. All
// scheduling comparisons use calendar days, never time of day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
