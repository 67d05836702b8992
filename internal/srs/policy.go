// Package srs implements the interval/confidence update policy applied after
// each review. The policy is a pure function: it never reads the clock or
// touches storage, so every date-dependent branch is reproducible in tests.
package srs

import (
	"math"
	"time"

	"review-service/internal/models"
)

// Params holds the tunable constants of the scheduling policy.
type Params struct {
	// GraduationThreshold is the repetition count at which a card leaves
	// the rotation.
	GraduationThreshold int
	// FailurePenalty is subtracted from the confidence factor on a failed
	// review.
	FailurePenalty float64
	// MinConfidence and MaxConfidence bound the confidence factor. New
	// cards start at MaxConfidence.
	MinConfidence float64
	MaxConfidence float64
}

// DefaultParams returns the production policy constants.
func DefaultParams() *Params {
	return &Params{
		GraduationThreshold: 5,
		FailurePenalty:      0.20,
		MinConfidence:       1.3,
		MaxConfidence:       2.5,
	}
}

// CardState is the scheduling state the policy reads and produces.
type CardState struct {
	Interval         int
	ConfidenceFactor float64
	RepetitionCount  int
	Status           models.CardStatus
	NextReviewDate   time.Time
}

// Validate reports whether a state is inside the policy's bounds. Stored
// cards always are; a violation means a caller bug or corrupted document.
func (p *Params) Validate(s CardState) bool {
	return s.Interval >= 1 &&
		s.RepetitionCount >= 0 &&
		s.ConfidenceFactor >= p.MinConfidence &&
		s.ConfidenceFactor <= p.MaxConfidence
}

// NextState computes the state a card moves to after one review. The next
// review date is derived from the calendar day of "today", never from the
// submission's time of day.
func (p *Params) NextState(current CardState, wasCorrect bool, today time.Time) CardState {
	next := current

	if !wasCorrect {
		// A lapse restarts the ramp and dents confidence, floored so
		// that any run of consecutive failures pins at MinConfidence.
		next.Interval = 1
		next.RepetitionCount = 0
		next.Status = models.CardStatusLearning
		next.ConfidenceFactor = current.ConfidenceFactor - p.FailurePenalty
		if next.ConfidenceFactor < p.MinConfidence {
			next.ConfidenceFactor = p.MinConfidence
		}
		next.NextReviewDate = models.DateOnly(today).AddDate(0, 0, next.Interval)
		return next
	}

	switch current.RepetitionCount {
	case 0:
		next.Interval = 1
		next.Status = models.CardStatusLearning
	case 1:
		next.Interval = 6
		next.Status = models.CardStatusReview
	default:
		next.Interval = int(math.Round(float64(current.Interval) * current.ConfidenceFactor))
		if next.Interval < 1 {
			next.Interval = 1
		}
		next.Status = models.CardStatusReview
		if current.RepetitionCount+1 >= p.GraduationThreshold {
			next.Status = models.CardStatusGraduated
		}
	}

	next.RepetitionCount = current.RepetitionCount + 1
	next.NextReviewDate = models.DateOnly(today).AddDate(0, 0, next.Interval)
	return next
}
