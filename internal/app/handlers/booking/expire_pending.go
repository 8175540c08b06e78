package booking

import (
	"context"
	"log/slog"
	"time"

	"whistleinn/internal/app/commands"
	"whistleinn/internal/app/outbox"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
)

const expirePendingKey = "booking.expire_pending"

// ExpirePendingCommand releases pending holds whose payment session was
// abandoned. The reaper worker dispatches it on a fixed cadence.
type ExpirePendingCommand struct {
	OlderThan time.Duration
}

func (c ExpirePendingCommand) Key() string { return expirePendingKey }

type ExpirePendingResult struct {
	Expired int `json:"expired"`
}

type ExpirePendingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ExpirePendingHandler) Handle(ctx context.Context, cmd ExpirePendingCommand) (*ExpirePendingResult, error) {
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
	stale, err := unit.Bookings().List(ctx, domainbooking.ListFilter{
		Statuses:      []domainbooking.Status{domainbooking.StatusPending},
		CreatedBefore: now.Add(-cmd.OlderThan),
	})
	if err != nil {
		return nil, err
	}

	expired := 0
	for _, b := range stale {
		if err := b.Cancel("payment session expired", now); err != nil {
			// Raced with a webhook that flipped it to paid; leave it.
			h.Logger.Debug("skipping stale hold", "booking_id", b.ID, "status", b.Status)
			continue
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := unit.Bookings().ReleaseDates(ctx, b.ID); err != nil {
			return nil, err
		}
		pending := b.PendingEvents()
		b.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
			return nil, err
		}
		expired++
	}

	if owned {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	if expired > 0 {
		h.Logger.Info("expired stale pending holds", "count", expired, "older_than", cmd.OlderThan)
	}
	return &ExpirePendingResult{Expired: expired}, nil
}

var _ commands.Handler[ExpirePendingCommand, *ExpirePendingResult] = (*ExpirePendingHandler)(nil)
