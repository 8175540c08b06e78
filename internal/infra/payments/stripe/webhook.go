package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

var ErrIgnoredEvent = errors.New("stripe: event type not handled")

// CompletedSession is the verified payload extracted from a
// checkout.session.completed event.
type CompletedSession struct {
	SessionID     string
	BookingID     string
	PaymentIntent string
	GuestName     string
	GuestEmail    string
}

// WebhookVerifier authenticates incoming Stripe webhooks against the
// endpoint's signing secret. Unsigned or tampered payloads never reach the
// booking state machine.
type WebhookVerifier struct {
	SigningSecret string
}

func (v WebhookVerifier) Verify(payload []byte, signatureHeader string) (CompletedSession, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, v.SigningSecret)
	if err != nil {
		return CompletedSession{}, fmt.Errorf("stripe: webhook signature: %w", err)
	}
	if event.Type != "checkout.session.completed" {
		return CompletedSession{}, ErrIgnoredEvent
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return CompletedSession{}, fmt.Errorf("stripe: decode session: %w", err)
	}

	out := CompletedSession{
		SessionID: session.ID,
		BookingID: session.Metadata["bookingId"],
	}
	if session.PaymentIntent != nil {
		out.PaymentIntent = session.PaymentIntent.ID
	}
	if session.CustomerDetails != nil {
		out.GuestName = session.CustomerDetails.Name
		out.GuestEmail = session.CustomerDetails.Email
	}
	return out, nil
}
