package policies

import (
	"context"

	"whistleinn/internal/domain/shared/money"
)

// CheckoutSessionParams describe the payment session requested for a booking.
type CheckoutSessionParams struct {
	BookingID          string
	GuestEmail         string
	Nights             int
	AccommodationTotal money.Money
	CleaningFee        money.Money
	Discount           money.Money
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the collaborator's handle the guest is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentsPort is the external payment collaborator: create a session for an
// amount, refund by stored transaction reference. Completion arrives
// asynchronously through the webhook.
type PaymentsPort interface {
	CreateSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error)
	Refund(ctx context.Context, paymentRef string) error
}
