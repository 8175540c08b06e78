package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	appoutbox "whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	domainbooking "whistleinn/internal/domain/booking"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/infra/storage/memory"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []policies.Notification
}

func (n *recordingNotifier) Send(ctx context.Context, notification policies.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type recordingGateway struct {
	refunds []string
	fail    bool
}

func (g *recordingGateway) CreateSession(ctx context.Context, params policies.CheckoutSessionParams) (policies.CheckoutSession, error) {
	return policies.CheckoutSession{ID: "sess-x"}, nil
}

func (g *recordingGateway) Refund(ctx context.Context, paymentRef string) error {
	if g.fail {
		return errors.New("refund failed")
	}
	g.refunds = append(g.refunds, paymentRef)
	return nil
}

func seedBooking(t *testing.T, factory memory.Factory, id string, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	return seedBookingAt(t, factory, id, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), createdAt)
}

func seedBookingAt(t *testing.T, factory memory.Factory, id string, start, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(start, start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		Range:      dr,
		GuestName:  "Grace",
		GuestEmail: "grace@example.com",
		Guests:     2,
		Now:        createdAt,
	})
	if err != nil {
		t.Fatalf("NewPending: %v", err)
	}
	b.AttachSession("sess-"+id, createdAt)
	b.ClearEvents()
	if err := factory.BookingRepo.HoldDates(context.Background(), b.ID, dr); err != nil {
		t.Fatalf("HoldDates: %v", err)
	}
	if err := factory.BookingRepo.Save(context.Background(), b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return b
}

func TestCompletePayment(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedBooking(t, factory, "bk-1", time.Now().UTC())
	notifier := &recordingNotifier{}
	box := memory.NewOutbox()
	handler := &CompletePaymentHandler{
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
		Notifier:   notifier,
		Logger:     slog.Default(),
	}

	result, err := handler.Handle(ctx, CompletePaymentCommand{
		SessionID:  "sess-bk-1",
		PaymentRef: "pi_77",
		GuestName:  "Grace H.",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != string(domainbooking.StatusPaid) {
		t.Errorf("status: got %s, want paid", result.Status)
	}

	b, _ := factory.BookingRepo.ByID(ctx, "bk-1")
	if b.Status != domainbooking.StatusPaid || b.PaymentRef != "pi_77" {
		t.Errorf("unexpected state: %s %s", b.Status, b.PaymentRef)
	}
	if b.GuestName != "Grace H." {
		t.Errorf("guest name not refreshed: %q", b.GuestName)
	}
	if notifier.count() != 1 {
		t.Errorf("confirmations sent: got %d, want 1", notifier.count())
	}
	if len(box.Pending()) == 0 {
		t.Error("paid event not recorded in the outbox")
	}

	// Replayed webhook: state unchanged, no second confirmation.
	if _, err := handler.Handle(ctx, CompletePaymentCommand{SessionID: "sess-bk-1", PaymentRef: "pi_other"}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	b, _ = factory.BookingRepo.ByID(ctx, "bk-1")
	if b.PaymentRef != "pi_77" {
		t.Errorf("payment ref overwritten on replay: %q", b.PaymentRef)
	}
	if notifier.count() != 1 {
		t.Errorf("replay re-sent the confirmation: %d", notifier.count())
	}
}

func TestCompletePaymentUnknownSession(t *testing.T) {
	handler := &CompletePaymentHandler{
		UoWFactory: memory.NewFactory(),
		Outbox:     memory.NewOutbox(),
		Logger:     slog.Default(),
	}
	_, err := handler.Handle(context.Background(), CompletePaymentCommand{SessionID: "sess-nope"})
	if !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateBookingStatusCancelRefunds(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	b := seedBooking(t, factory, "bk-2", time.Now().UTC())
	if err := b.MarkPaid("pi_55", "", "", time.Now()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	b.ClearEvents()
	if err := factory.BookingRepo.Save(ctx, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gateway := &recordingGateway{}
	notifier := &recordingNotifier{}
	handler := &UpdateBookingStatusHandler{
		UoWFactory: factory,
		Payments:   gateway,
		Outbox:     memory.NewOutbox(),
		Encoder:    appoutbox.JSONEventEncoder{},
		Notifier:   notifier,
		Logger:     slog.Default(),
	}

	result, err := handler.Handle(ctx, UpdateBookingStatusCommand{
		BookingID: "bk-2",
		Status:    string(domainbooking.StatusCancelled),
		Reason:    "guest request",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Refunded {
		t.Error("expected a refund for a paid booking")
	}
	if len(gateway.refunds) != 1 || gateway.refunds[0] != "pi_55" {
		t.Errorf("refunds: %v", gateway.refunds)
	}
	if notifier.count() != 1 {
		t.Errorf("cancellation notices: got %d, want 1", notifier.count())
	}

	stored, _ := factory.BookingRepo.ByID(ctx, "bk-2")
	if stored.Status != domainbooking.StatusCancelled {
		t.Errorf("status: got %s, want cancelled", stored.Status)
	}
	if err := factory.BookingRepo.HoldDates(ctx, "bk-next", stored.Range); err != nil {
		t.Errorf("cancelled dates should be rebookable: %v", err)
	}
}

func TestUpdateBookingStatusRefundFailureKeepsCancellation(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	b := seedBooking(t, factory, "bk-3", time.Now().UTC())
	_ = b.MarkPaid("pi_99", "", "", time.Now())
	b.ClearEvents()
	_ = factory.BookingRepo.Save(ctx, b)

	handler := &UpdateBookingStatusHandler{
		UoWFactory: factory,
		Payments:   &recordingGateway{fail: true},
		Outbox:     memory.NewOutbox(),
		Encoder:    appoutbox.JSONEventEncoder{},
		Logger:     slog.Default(),
	}

	result, err := handler.Handle(ctx, UpdateBookingStatusCommand{
		BookingID: "bk-3",
		Status:    string(domainbooking.StatusCancelled),
		Reason:    "host request",
	})
	if err != nil {
		t.Fatalf("a refund failure must not fail the cancellation: %v", err)
	}
	if result.Refunded {
		t.Error("refund reported despite gateway failure")
	}
	stored, _ := factory.BookingRepo.ByID(ctx, "bk-3")
	if stored.Status != domainbooking.StatusCancelled {
		t.Errorf("cancellation rolled back: %s", stored.Status)
	}
}

func TestUpdateBookingStatusManualPaid(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedBooking(t, factory, "bk-4", time.Now().UTC())

	handler := &UpdateBookingStatusHandler{
		UoWFactory: factory,
		Payments:   &recordingGateway{},
		Outbox:     memory.NewOutbox(),
		Encoder:    appoutbox.JSONEventEncoder{},
		Logger:     slog.Default(),
	}
	result, err := handler.Handle(ctx, UpdateBookingStatusCommand{
		BookingID: "bk-4",
		Status:    string(domainbooking.StatusPaid),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != string(domainbooking.StatusPaid) {
		t.Errorf("status: got %s, want paid", result.Status)
	}
}

func TestUpdateBookingStatusRejectsPendingTarget(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedBooking(t, factory, "bk-5", time.Now().UTC())

	handler := &UpdateBookingStatusHandler{
		UoWFactory: factory,
		Payments:   &recordingGateway{},
		Outbox:     memory.NewOutbox(),
		Logger:     slog.Default(),
	}
	_, err := handler.Handle(ctx, UpdateBookingStatusCommand{
		BookingID: "bk-5",
		Status:    string(domainbooking.StatusPending),
	})
	if !errors.Is(err, domainbooking.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	now := time.Now().UTC()
	seedBookingAt(t, factory, "bk-stale", time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), now.Add(-time.Hour))
	fresh := seedBookingAt(t, factory, "bk-fresh", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), now.Add(-5*time.Minute))
	paid := seedBookingAt(t, factory, "bk-paid", time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), now.Add(-2*time.Hour))
	_ = paid.MarkPaid("pi_1", "", "", now)
	paid.ClearEvents()
	_ = factory.BookingRepo.Save(ctx, paid)
	_ = fresh // kept pending, too young to expire

	handler := &ExpirePendingHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Encoder:    appoutbox.JSONEventEncoder{},
		Logger:     slog.Default(),
	}
	result, err := handler.Handle(ctx, ExpirePendingCommand{OlderThan: 30 * time.Minute})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Expired != 1 {
		t.Errorf("expired: got %d, want 1", result.Expired)
	}

	stale, _ := factory.BookingRepo.ByID(ctx, "bk-stale")
	if stale.Status != domainbooking.StatusCancelled {
		t.Errorf("stale hold not cancelled: %s", stale.Status)
	}
	if err := factory.BookingRepo.HoldDates(ctx, "bk-next", stale.Range); err != nil {
		t.Errorf("reaped dates should be rebookable: %v", err)
	}
	kept, _ := factory.BookingRepo.ByID(ctx, "bk-fresh")
	if kept.Status != domainbooking.StatusPending {
		t.Errorf("fresh hold should stay pending: %s", kept.Status)
	}
	stillPaid, _ := factory.BookingRepo.ByID(ctx, "bk-paid")
	if stillPaid.Status != domainbooking.StatusPaid {
		t.Errorf("paid booking must not be reaped: %s", stillPaid.Status)
	}
}
