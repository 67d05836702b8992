package handlers

import (
	"context"
	"net/http"
	"time"

	"review-service/internal/models"
	"review-service/internal/service"

	"github.com/gin-gonic/gin"
)

type CardHandler struct {
	Service *service.CardService
}

func NewCardHandler(s *service.CardService) *CardHandler {
	return &CardHandler{Service: s}
}

// GetDueCards returns the learner's full overdue backlog, oldest first.
func (h *CardHandler) GetDueCards(c *gin.Context) {
	userID := c.Param("id")
	asOf, ok := parseDateQuery(c, "as_of", time.Now())
	if !ok {
		return
	}
	cards, err := h.Service.DueCards(context.Background(), userID, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "count": len(cards), "cards": cards})
}

// GetCardsDueOn returns cards due on exactly one calendar day.
func (h *CardHandler) GetCardsDueOn(c *gin.Context) {
	userID := c.Param("id")
	date, ok := parseDateQuery(c, "date", time.Now())
	if !ok {
		return
	}
	cards, err := h.Service.CardsDueOn(context.Background(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "count": len(cards), "cards": cards})
}

func (h *CardHandler) GetStats(c *gin.Context) {
	userID := c.Param("id")
	stats, err := h.Service.Stats(context.Background(), userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type createFromMistakesRequest struct {
	UserID    string                  `json:"user_id" binding:"required"`
	SessionID string                  `json:"session_id" binding:"required"`
	Questions []models.MissedQuestion `json:"questions" binding:"required"`
}

// CreateFromMistakes ingests a graded session's missed questions.
func (h *CardHandler) CreateFromMistakes(c *gin.Context) {
	var req createFromMistakesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.Service.CreateCardsFromMistakes(context.Background(), req.UserID, req.Questions, req.SessionID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "cards": created})
}

type submitReviewRequest struct {
	WasCorrect *bool `json:"was_correct" binding:"required"`
}

func (h *CardHandler) SubmitReview(c *gin.Context) {
	cardID := c.Param("id")
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.Service.SubmitReview(context.Background(), cardID, *req.WasCorrect, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}
