package checkout

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"whistleinn/internal/app/commands"
	"whistleinn/internal/app/handlers/quote"
	"whistleinn/internal/app/middleware"
	"whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
)

const startCheckoutKey = "checkout.start"

type StartCheckoutCommand struct {
	CommandID       string
	StartDate       time.Time
	EndDate         time.Time
	Guests          int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	CouponCode      string
	SuccessURL      string
	CancelURL       string
	IdempotencyKeyV string
}

func (c StartCheckoutCommand) Key() string { return startCheckoutKey }

func (c StartCheckoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c StartCheckoutCommand) ResultPrototype() any { return &StartCheckoutResult{} }

type StartCheckoutResult struct {
	BookingID   string `json:"booking_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// StartCheckoutHandler validates availability and takes the pending hold in
// one transaction, then hands off to the payment collaborator. If session
// creation fails after the insert, the hold is released by the reaper.
type StartCheckoutHandler struct {
	UoWFactory uow.Factory
	Base       domainrates.BasePricing
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *StartCheckoutHandler) Handle(ctx context.Context, cmd StartCheckoutCommand) (*StartCheckoutResult, error) {
	ctx, span := otel.Tracer("whistleinn/checkout").Start(ctx, "checkout.start")
	defer span.End()

	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	if owned {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := time.Now().UTC()
	dr, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	// The quote is always re-derived here; a client-supplied total is never
	// trusted for payment.
	breakdown, cpn, err := quote.Derive(ctx, unit, h.Base, quote.DeriveParams{
		StartDate:  cmd.StartDate,
		EndDate:    cmd.EndDate,
		CouponCode: cmd.CouponCode,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	if err := ensureAvailable(ctx, unit, dr); err != nil {
		return nil, err
	}

	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		Range:      dr,
		GuestName:  cmd.GuestName,
		GuestEmail: cmd.GuestEmail,
		GuestPhone: cmd.GuestPhone,
		Guests:     cmd.Guests,
		Price:      breakdown,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}
	// The overlap check above cannot see a hold committed by a concurrent
	// checkout; the per-night locks can always conflict, so of two racing
	// checkouts exactly one keeps the dates.
	if err := unit.Bookings().HoldDates(ctx, b.ID, dr); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	if cpn != nil {
		// Conditional increment in the same transaction that holds the dates;
		// the cap cannot be oversubscribed by concurrent checkouts.
		if err := unit.Coupons().Redeem(ctx, cpn.ID); err != nil {
			return nil, err
		}
	}

	session, err := h.Payments.CreateSession(ctx, policies.CheckoutSessionParams{
		BookingID:          string(b.ID),
		GuestEmail:         b.GuestEmail,
		Nights:             breakdown.Nights,
		AccommodationTotal: breakdown.AccommodationTotal,
		CleaningFee:        breakdown.CleaningFee,
		Discount:           breakdown.DiscountAmount,
		SuccessURL:         cmd.SuccessURL,
		CancelURL:          cmd.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	b.AttachSession(session.ID, now)
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	if owned {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &StartCheckoutResult{
		BookingID:   string(b.ID),
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// ensureAvailable applies the half-open overlap check against live bookings
// (pending holds included) and every external booking.
func ensureAvailable(ctx context.Context, unit uow.UnitOfWork, dr daterange.DateRange) error {
	held, err := unit.Bookings().AnyOverlapping(ctx, dr, domainbooking.HoldStatuses())
	if err != nil {
		return err
	}
	if held {
		return domainbooking.ErrDatesUnavailable
	}
	external, err := unit.External().Overlapping(ctx, dr)
	if err != nil {
		return err
	}
	if len(external) > 0 {
		return domainbooking.ErrDatesUnavailable
	}
	return nil
}

var _ commands.Handler[StartCheckoutCommand, *StartCheckoutResult] = (*StartCheckoutHandler)(nil)
var _ middleware.IdempotentCommand = StartCheckoutCommand{}
