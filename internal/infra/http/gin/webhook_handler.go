package ginserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/commands"
	bookingapp "whistleinn/internal/app/handlers/booking"
	"whistleinn/internal/infra/obs"
	stripeinfra "whistleinn/internal/infra/payments/stripe"
)

type WebhookHTTP interface {
	PaymentWebhook(c *gin.Context)
	ConfirmMockPayment(c *gin.Context)
}

// WebhookHandler receives payment provider callbacks. The webhook body is
// authenticated before any state transition happens; an unverifiable payload
// is rejected without touching the booking.
type WebhookHandler struct {
	Commands commands.Bus
	Verifier stripeinfra.WebhookVerifier
	MockMode bool
	Metrics  *obs.Metrics
	Logger   *slog.Logger
}

func (h WebhookHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
		return
	}

	session, err := h.Verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, stripeinfra.ErrIgnoredEvent) {
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		h.Logger.Warn("webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
		return
	}

	cmd := bookingapp.CompletePaymentCommand{
		SessionID:  session.SessionID,
		PaymentRef: session.PaymentIntent,
		GuestName:  session.GuestName,
		GuestEmail: session.GuestEmail,
	}
	if _, err := commands.Dispatch[bookingapp.CompletePaymentCommand, *bookingapp.CompletePaymentResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.BookingPaid()
	}
	c.Status(http.StatusOK)
}

// ConfirmMockPayment lets the success page finish a checkout when payments
// run in mock mode. Disabled with a real provider, where only the signed
// webhook may mark a booking paid.
func (h WebhookHandler) ConfirmMockPayment(c *gin.Context) {
	if !h.MockMode {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	cmd := bookingapp.CompletePaymentCommand{
		SessionID:  sessionID,
		PaymentRef: "mock_pi_" + sessionID,
	}
	result, err := commands.Dispatch[bookingapp.CompletePaymentCommand, *bookingapp.CompletePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.BookingPaid()
	}
	c.JSON(http.StatusOK, result)
}

var _ WebhookHTTP = WebhookHandler{}
