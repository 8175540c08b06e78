package booking

import (
	"context"
	"log/slog"
	"time"

	"whistleinn/internal/app/commands"
	"whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
)

const completePaymentKey = "booking.complete_payment"

// CompletePaymentCommand is raised by the verified payment webhook, or by
// the success-page confirmation when payments run in mock mode.
type CompletePaymentCommand struct {
	SessionID  string
	PaymentRef string
	GuestName  string
	GuestEmail string
}

func (c CompletePaymentCommand) Key() string { return completePaymentKey }

type CompletePaymentResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type CompletePaymentHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.Notifier
	Logger     *slog.Logger
}

func (h *CompletePaymentHandler) Handle(ctx context.Context, cmd CompletePaymentCommand) (*CompletePaymentResult, error) {
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

	b, err := unit.Bookings().BySessionID(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	alreadyPaid := b.Status == domainbooking.StatusPaid
	if err := b.MarkPaid(cmd.PaymentRef, cmd.GuestName, cmd.GuestEmail, now); err != nil {
		return nil, err
	}
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

	// Confirmation is best-effort and at-most-once: a failed send is logged
	// and the paid transition stands. Replayed webhooks do not re-send.
	if !alreadyPaid && h.Notifier != nil {
		notify(ctx, h.Notifier, h.Logger, policies.Notification{
			Template: "booking_confirmation",
			To:       b.GuestEmail,
			Phone:    b.GuestPhone,
			Data: map[string]string{
				"guestName": b.GuestName,
				"startDate": b.Range.Start.Format("January 2, 2006"),
				"endDate":   b.Range.End.Format("January 2, 2006"),
				"bookingId": string(b.ID),
			},
		})
	}

	return &CompletePaymentResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func notify(ctx context.Context, notifier policies.Notifier, logger *slog.Logger, n policies.Notification) {
	if err := notifier.Send(ctx, n); err != nil && logger != nil {
		logger.Error("notification send failed", "template", n.Template, "to", n.To, "error", err)
	}
}

var _ commands.Handler[CompletePaymentCommand, *CompletePaymentResult] = (*CompletePaymentHandler)(nil)
