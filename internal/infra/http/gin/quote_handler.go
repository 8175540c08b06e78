package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/dto"
	quoteapp "whistleinn/internal/app/handlers/quote"
	"whistleinn/internal/app/queries"
)

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type QuoteHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type quoteRequest struct {
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	CouponCode string    `json:"coupon_code"`
}

func (h QuoteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, quoteapp.GetQuoteQuery{
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
