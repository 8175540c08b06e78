package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/dto"
	availabilityapp "whistleinn/internal/app/handlers/availability"
	"whistleinn/internal/app/queries"
)

type AvailabilityHTTP interface {
	BlockedRanges(c *gin.Context)
}

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// defaultAvailabilityWindow covers the public calendar widget when no
// explicit window is requested.
const defaultAvailabilityWindow = 18 // months

func (h AvailabilityHandler) BlockedRanges(c *gin.Context) {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	to := from.AddDate(0, defaultAvailabilityWindow, 0)
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
		to = parsed
	}
	result, err := queries.Ask[availabilityapp.BlockedRangesQuery, dto.BlockedRanges](c.Request.Context(), h.Queries, availabilityapp.BlockedRangesQuery{
		From: from,
		To:   to,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
