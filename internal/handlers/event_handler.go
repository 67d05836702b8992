package handlers

import (
	"context"
	"net/http"
	"time"

	"review-service/internal/models"
	"review-service/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	Service *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{Service: s}
}

// GetEventsInRange returns a learner's calendar events grouped by day.
func (h *EventHandler) GetEventsInRange(c *gin.Context) {
	userID := c.Param("id")
	start, ok := parseDateQuery(c, "start", time.Now())
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end", start.AddDate(0, 0, 30))
	if !ok {
		return
	}
	days, err := h.Service.EventsInRange(context.Background(), userID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "days": days})
}

type createRootEventRequest struct {
	UserID  string   `json:"user_id" binding:"required"`
	Variant string   `json:"variant" binding:"required"`
	Date    string   `json:"date" binding:"required"`
	Title   string   `json:"title" binding:"required"`
	Topics  []string `json:"topics"`
}

// CreateRootEvent creates a major exam or small quiz plus its study plan.
func (h *EventHandler) CreateRootEvent(c *gin.Context) {
	var req createRootEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	root, err := h.Service.CreateRootEvent(context.Background(), req.UserID, models.EventVariant(req.Variant), date, req.Title, req.Topics, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, root)
}

type acceptSuggestionRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
	Date     string `json:"date" binding:"required"`
	Priority string `json:"priority"`
}

// AcceptAiSuggestion persists an accepted recommendation-feed candidate.
func (h *EventHandler) AcceptAiSuggestion(c *gin.Context) {
	var req acceptSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	ev, err := h.Service.AcceptAiSuggestion(context.Background(), req.UserID, service.AiCandidate{
		Title:    req.Title,
		Topic:    req.Topic,
		Subtopic: req.Subtopic,
		Date:     date,
		Priority: req.Priority,
	}, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

type completeEventRequest struct {
	Payload map[string]interface{} `json:"payload"`
}

func (h *EventHandler) MarkCompleted(c *gin.Context) {
	eventID := c.Param("id")
	var req completeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.MarkCompleted(context.Background(), eventID, req.Payload, time.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "completed": true})
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID := c.Param("id")
	cascade := c.Query("cascade") == "true"
	children, err := h.Service.Delete(context.Background(), eventID, cascade)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "children_deleted": children})
}
