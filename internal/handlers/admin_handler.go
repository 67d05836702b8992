package handlers

import (
	"context"
	"net/http"
	"time"

	"review-service/internal/models"
	"review-service/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operational surface: the on-demand triggers for
// the eviction and reminder-scheduling passes.
type AdminHandler struct {
	Eviction  *service.EvictionService
	Scheduler *service.SchedulerService
}

func NewAdminHandler(eviction *service.EvictionService, scheduler *service.SchedulerService) *AdminHandler {
	return &AdminHandler{Eviction: eviction, Scheduler: scheduler}
}

// RunEviction triggers one eviction pass. The cutoff defaults to yesterday.
func (h *AdminHandler) RunEviction(c *gin.Context) {
	now := time.Now()
	cutoff, ok := parseDateQuery(c, "cutoff", models.DateOnly(now).AddDate(0, 0, -1))
	if !ok {
		return
	}
	report, err := h.Eviction.Run(context.Background(), cutoff, now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunScheduler triggers the reminder pass, for one learner when user_id is
// given, otherwise for everyone with active cards.
func (h *AdminHandler) RunScheduler(c *gin.Context) {
	today, ok := parseDateQuery(c, "date", time.Now())
	if !ok {
		return
	}
	var (
		scheduled int
		err       error
	)
	if userID := c.Query("user_id"); userID != "" {
		scheduled, err = h.Scheduler.ScheduleDueReviews(context.Background(), userID, today)
	} else {
		scheduled, err = h.Scheduler.ScheduleAllDue(context.Background(), today)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": scheduled})
}
