package booking

import (
	"context"
	"errors"
	"time"

	"whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/events"
)

var (
	ErrNotFound         = errors.New("booking: not found")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrInvalidGuests    = errors.New("booking: guest count must be positive")
	ErrDatesUnavailable = errors.New("booking: requested dates are unavailable")
)

type BookingID string

// Status follows pending -> {paid, cancelled}. Paid bookings may still be
// cancelled by an admin, but never return to pending. Bookings are never
// deleted; the record is the audit trail.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Booking is a guest reservation for the property. A pending booking is a soft
// lock: it blocks conflicting checkouts while payment is collected.
type Booking struct {
	ID           BookingID
	Range        daterange.DateRange
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	Guests       int
	Price        rates.Breakdown
	Status       Status
	PaymentRef   string
	SessionID    string
	Notes        string
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Repository persists bookings. AnyOverlapping alone cannot close the
// check-then-insert race: under snapshot isolation two concurrent checkouts
// each read zero conflicts and insert distinct documents. HoldDates is the
// exclusion primitive — it reserves every night of the range under a unique
// per-night key, so at most one booking can hold a given night and the loser
// of a race gets ErrDatesUnavailable.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	BySessionID(ctx context.Context, sessionID string) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
	AnyOverlapping(ctx context.Context, dr daterange.DateRange, statuses []Status) (bool, error)
	Save(ctx context.Context, b *Booking) error
	HoldDates(ctx context.Context, id BookingID, dr daterange.DateRange) error
	ReleaseDates(ctx context.Context, id BookingID) error
}

// ListFilter narrows admin booking lists. CreatedBefore selects stale records
// for the pending-hold reaper.
type ListFilter struct {
	Statuses      []Status
	From          time.Time
	To            time.Time
	CreatedBefore time.Time
}

// HoldStatuses are the statuses that block availability.
func HoldStatuses() []Status {
	return []Status{StatusPending, StatusPaid}
}

type CreateParams struct {
	ID         BookingID
	Range      daterange.DateRange
	GuestName  string
	GuestEmail string
	GuestPhone string
	Guests     int
	Price      rates.Breakdown
	Now        time.Time
}

// NewPending creates the reservation hold taken the instant a checkout attempt
// begins, before any payment confirmation exists.
func NewPending(params CreateParams) (*Booking, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:         params.ID,
		Range:      params.Range,
		GuestName:  params.GuestName,
		GuestEmail: params.GuestEmail,
		GuestPhone: params.GuestPhone,
		Guests:     params.Guests,
		Price:      params.Price,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(Created{
		BaseEvent: events.BaseEvent{Name: "booking.created", Aggregate: string(b.ID), Time: now},
		Range:     b.Range,
		Total:     b.Price.Total.Amount,
	})
	return b, nil
}

// AttachSession records the payment session backing this hold.
func (b *Booking) AttachSession(sessionID string, now time.Time) {
	b.SessionID = sessionID
	b.UpdatedAt = now.UTC()
}

// MarkPaid is driven by the authenticated payment-completion signal. It is
// idempotent for replayed webhooks carrying the same session.
func (b *Booking) MarkPaid(paymentRef, guestName, guestEmail string, now time.Time) error {
	if b.Status == StatusPaid {
		return nil
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusPaid
	b.PaymentRef = paymentRef
	if guestName != "" {
		b.GuestName = guestName
	}
	if guestEmail != "" {
		b.GuestEmail = guestEmail
	}
	b.UpdatedAt = now.UTC()
	b.Record(Paid{
		BaseEvent:  events.BaseEvent{Name: "booking.paid", Aggregate: string(b.ID), Time: b.UpdatedAt},
		PaymentRef: paymentRef,
		Total:      b.Price.Total.Amount,
	})
	return nil
}

// Cancel transitions any live booking to cancelled. The caller requests the
// refund when a payment reference exists; state never rolls back on refund or
// notification failure.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusPaid:
	default:
		return ErrInvalidState
	}
	wasPaid := b.Status == StatusPaid
	b.Status = StatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = now.UTC()
	b.Record(Cancelled{
		BaseEvent: events.BaseEvent{Name: "booking.cancelled", Aggregate: string(b.ID), Time: b.UpdatedAt},
		Reason:    reason,
		WasPaid:   wasPaid,
	})
	return nil
}

// RefundDue reports whether cancelling this booking must trigger a refund.
func (b *Booking) RefundDue() bool {
	return b.PaymentRef != ""
}
