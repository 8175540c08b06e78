package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"whistleinn/internal/app/commands"
	"whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
)

const updateBookingStatusKey = "booking.update_status"

// UpdateBookingStatusCommand is the admin state-change operation. The only
// transitions it accepts are pending->paid (manual confirmation) and
// {pending,paid}->cancelled.
type UpdateBookingStatusCommand struct {
	BookingID string
	Status    string
	Reason    string
	Notes     string
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }

type UpdateBookingStatusResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Refunded  bool   `json:"refunded"`
}

type UpdateBookingStatusHandler struct {
	UoWFactory uow.Factory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.Notifier
	Logger     *slog.Logger
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*UpdateBookingStatusResult, error) {
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	switch domainbooking.Status(cmd.Status) {
	case domainbooking.StatusPaid:
		if err := b.MarkPaid("manual:"+cmd.BookingID, "", "", now); err != nil {
			return nil, err
		}
	case domainbooking.StatusCancelled:
		if err := b.Cancel(cmd.Reason, now); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot set status %q", domainbooking.ErrInvalidState, cmd.Status)
	}
	if cmd.Notes != "" {
		b.Notes = cmd.Notes
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if b.Status == domainbooking.StatusCancelled {
		// Frees the per-night locks so the dates can be rebooked.
		if err := unit.Bookings().ReleaseDates(ctx, b.ID); err != nil {
			return nil, err
		}
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

	// The cancellation stands even when the refund or guest notification
	// fails: those run after commit and only log their errors. A failed
	// refund is retried manually from the payment dashboard.
	refunded := false
	if b.Status == domainbooking.StatusCancelled {
		if b.RefundDue() {
			if err := h.Payments.Refund(ctx, b.PaymentRef); err != nil {
				h.Logger.Error("refund request failed", "booking_id", b.ID, "payment_ref", b.PaymentRef, "error", err)
			} else {
				refunded = true
			}
		}
		if h.Notifier != nil && b.GuestEmail != "" {
			notify(ctx, h.Notifier, h.Logger, policies.Notification{
				Template: "booking_cancelled",
				To:       b.GuestEmail,
				Phone:    b.GuestPhone,
				Data: map[string]string{
					"guestName": b.GuestName,
					"startDate": b.Range.Start.Format("January 2, 2006"),
					"endDate":   b.Range.End.Format("January 2, 2006"),
					"reason":    b.CancelReason,
					"refunded":  fmt.Sprintf("%t", refunded),
				},
			})
		}
	}

	return &UpdateBookingStatusResult{BookingID: string(b.ID), Status: string(b.Status), Refunded: refunded}, nil
}

var _ commands.Handler[UpdateBookingStatusCommand, *UpdateBookingStatusResult] = (*UpdateBookingStatusHandler)(nil)
