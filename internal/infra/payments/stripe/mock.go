package stripe

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"whistleinn/internal/app/policies"
)

// MockGateway stands in for Stripe in local development and tests. The
// returned URL points straight at the success page so the flow can be walked
// without a Stripe account.
type MockGateway struct{}

func (MockGateway) CreateSession(ctx context.Context, params policies.CheckoutSessionParams) (policies.CheckoutSession, error) {
	id := "mock_sess_" + uuid.NewString()
	return policies.CheckoutSession{
		ID:  id,
		URL: fmt.Sprintf("%s?session_id=%s", params.SuccessURL, id),
	}, nil
}

func (MockGateway) Refund(ctx context.Context, paymentRef string) error {
	return nil
}

var _ policies.PaymentsPort = MockGateway{}
