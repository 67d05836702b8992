package handlers

import (
	"errors"
	"net/http"
	"time"

	"review-service/internal/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseDateQuery reads a YYYY-MM-DD query parameter, defaulting to today's
// date when absent.
func parseDateQuery(c *gin.Context, key string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ", expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// respondError maps store errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
