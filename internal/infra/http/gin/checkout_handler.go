package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"whistleinn/internal/app/commands"
	checkoutapp "whistleinn/internal/app/handlers/checkout"
	"whistleinn/internal/infra/obs"
)

type CheckoutHTTP interface {
	Start(c *gin.Context)
}

type CheckoutHandler struct {
	Commands commands.Bus
	SiteURL  string
	Metrics  *obs.Metrics
	Logger   *slog.Logger
}

type checkoutRequest struct {
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	Guests     int       `json:"guest_count" binding:"required"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"email"`
	GuestPhone string    `json:"phone"`
	CouponCode string    `json:"coupon_code"`
}

func (h CheckoutHandler) Start(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := checkoutapp.StartCheckoutCommand{
		CommandID:       uuid.NewString(),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Guests:          req.Guests,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		CouponCode:      req.CouponCode,
		SuccessURL:      h.SiteURL + "/booking/success",
		CancelURL:       h.SiteURL + "/booking/cancelled",
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[checkoutapp.StartCheckoutCommand, *checkoutapp.StartCheckoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.BookingCreated()
	}
	c.JSON(http.StatusCreated, result)
}

var _ CheckoutHTTP = CheckoutHandler{}
