package stripe

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"whistleinn/internal/app/policies"
)

// Gateway implements the payments port on Stripe Checkout. Amounts cross the
// boundary in cents; everywhere else they are whole currency units.
type Gateway struct {
	api *client.API
}

func New(secretKey string) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Gateway{api: api}
}

func (g *Gateway) CreateSession(ctx context.Context, params policies.CheckoutSessionParams) (policies.CheckoutSession, error) {
	accommodation := params.AccommodationTotal.Cents() - params.Discount.Cents()
	if accommodation < 0 {
		accommodation = 0
	}

	lineItems := []*stripe.CheckoutSessionLineItemParams{
		{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(accommodation),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Stay at Whistle Inn (%d nights)", params.Nights)),
				},
			},
			Quantity: stripe.Int64(1),
		},
	}
	if params.CleaningFee.Cents() > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(params.CleaningFee.Cents()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Cleaning fee"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.GuestEmail),
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata("bookingId", params.BookingID)

	session, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return policies.CheckoutSession{}, fmt.Errorf("stripe: create session: %w", err)
	}
	return policies.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *Gateway) Refund(ctx context.Context, paymentRef string) error {
	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
	}
	refundParams.Context = ctx
	if _, err := g.api.Refunds.New(refundParams); err != nil {
		return fmt.Errorf("stripe: refund %s: %w", paymentRef, err)
	}
	return nil
}

var _ policies.PaymentsPort = (*Gateway)(nil)
