package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	appoutbox "whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/infra/storage/memory"
)

type stubGateway struct {
	sessions int
	fail     bool
}

func (g *stubGateway) CreateSession(ctx context.Context, params policies.CheckoutSessionParams) (policies.CheckoutSession, error) {
	if g.fail {
		return policies.CheckoutSession{}, errors.New("gateway down")
	}
	g.sessions++
	return policies.CheckoutSession{ID: "sess-1", URL: "https://pay.example.com/sess-1"}, nil
}

func (g *stubGateway) Refund(ctx context.Context, paymentRef string) error { return nil }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newHandler(factory memory.Factory, gateway policies.PaymentsPort) (*StartCheckoutHandler, *memory.Outbox) {
	box := memory.NewOutbox()
	return &StartCheckoutHandler{
		UoWFactory: factory,
		Base:       domainrates.DefaultBasePricing(),
		Payments:   gateway,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}, box
}

func baseCommand() StartCheckoutCommand {
	return StartCheckoutCommand{
		CommandID:  "bk-100",
		StartDate:  day(2026, 6, 1), // Monday
		EndDate:    day(2026, 6, 4),
		Guests:     2,
		GuestName:  "Ada",
		GuestEmail: "ada@example.com",
		SuccessURL: "https://inn.example.com/success",
		CancelURL:  "https://inn.example.com/cancel",
	}
}

func TestStartCheckout(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	handler, box := newHandler(factory, &stubGateway{})

	result, err := handler.Handle(ctx, baseCommand())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.BookingID != "bk-100" || result.SessionID != "sess-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.CheckoutURL == "" {
		t.Error("missing checkout URL")
	}

	b, err := factory.BookingRepo.ByID(ctx, "bk-100")
	if err != nil {
		t.Fatalf("persisted booking: %v", err)
	}
	if b.Status != domainbooking.StatusPending {
		t.Errorf("status: got %s, want pending", b.Status)
	}
	if b.SessionID != "sess-1" {
		t.Errorf("session not attached: %q", b.SessionID)
	}
	if b.Price.Total.Amount != 2100 {
		t.Errorf("total: got %d, want 2100", b.Price.Total.Amount)
	}
	if len(box.Pending()) == 0 {
		t.Error("no domain events recorded in the outbox")
	}
}

func TestStartCheckoutRejectsHeldDates(t *testing.T) {
	ctx := context.Background()
	statuses := []struct {
		name   string
		status domainbooking.Status
		want   error
	}{
		{"pending hold blocks", domainbooking.StatusPending, domainbooking.ErrDatesUnavailable},
		{"paid stay blocks", domainbooking.StatusPaid, domainbooking.ErrDatesUnavailable},
		{"cancelled does not block", domainbooking.StatusCancelled, nil},
	}
	for _, tt := range statuses {
		t.Run(tt.name, func(t *testing.T) {
			factory := memory.NewFactory()
			dr, _ := daterange.New(day(2026, 6, 2), day(2026, 6, 6))
			existing, err := domainbooking.NewPending(domainbooking.CreateParams{
				ID: "bk-existing", Range: dr, GuestName: "Prior", Guests: 1, Now: time.Now(),
			})
			if err != nil {
				t.Fatalf("NewPending: %v", err)
			}
			switch tt.status {
			case domainbooking.StatusPaid:
				_ = existing.MarkPaid("pi_1", "", "", time.Now())
			case domainbooking.StatusCancelled:
				_ = existing.Cancel("freed", time.Now())
			}
			existing.ClearEvents()
			if err := factory.BookingRepo.Save(ctx, existing); err != nil {
				t.Fatalf("Save: %v", err)
			}

			handler, _ := newHandler(factory, &stubGateway{})
			_, err = handler.Handle(ctx, baseCommand())
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStartCheckoutRejectsExternalOverlap(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	dr, _ := daterange.New(day(2026, 6, 3), day(2026, 6, 5))
	eb, err := domaincalendar.NewExternalBooking(domaincalendar.ExternalParams{
		ID: "ext-1", Source: "airbnb", Range: dr, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewExternalBooking: %v", err)
	}
	if err := factory.ExternalRepo.Save(ctx, eb); err != nil {
		t.Fatalf("Save: %v", err)
	}

	handler, _ := newHandler(factory, &stubGateway{})
	_, err = handler.Handle(ctx, baseCommand())
	if !errors.Is(err, domainbooking.ErrDatesUnavailable) {
		t.Fatalf("got %v, want ErrDatesUnavailable", err)
	}
}

func TestStartCheckoutBackToBackStays(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	dr, _ := daterange.New(day(2026, 5, 29), day(2026, 6, 1))
	existing, _ := domainbooking.NewPending(domainbooking.CreateParams{
		ID: "bk-prior", Range: dr, GuestName: "Prior", Guests: 1, Now: time.Now(),
	})
	existing.ClearEvents()
	if err := factory.BookingRepo.Save(ctx, existing); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The prior guest checks out 1 June; the new stay checks in the same
	// day. Half-open ranges make this a valid turnover.
	handler, _ := newHandler(factory, &stubGateway{})
	if _, err := handler.Handle(ctx, baseCommand()); err != nil {
		t.Fatalf("back-to-back stay rejected: %v", err)
	}
}

func TestStartCheckoutRedeemsCoupon(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	maxUses := 1
	cpn, err := domaincoupon.New(domaincoupon.CreateParams{
		ID: "cpn-1", Code: "TEN", Kind: domaincoupon.DiscountPercent, Value: 10,
		Active: true, MaxUses: &maxUses, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("coupon: %v", err)
	}
	if err := factory.CouponRepo.Save(ctx, cpn); err != nil {
		t.Fatalf("Save: %v", err)
	}

	handler, _ := newHandler(factory, &stubGateway{})
	cmd := baseCommand()
	cmd.CouponCode = "ten"
	if _, err := handler.Handle(ctx, cmd); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	b, _ := factory.BookingRepo.ByID(ctx, "bk-100")
	if b.Price.DiscountAmount.Amount != 195 {
		t.Errorf("discount: got %d, want 195", b.Price.DiscountAmount.Amount)
	}
	if b.Price.Total.Amount != 1905 {
		t.Errorf("total: got %d, want 1905", b.Price.Total.Amount)
	}

	stored, _ := factory.CouponRepo.ByID(ctx, "cpn-1")
	if stored.UsedCount != 1 {
		t.Errorf("used count: got %d, want 1", stored.UsedCount)
	}

	// The cap is spent; a second checkout with the same code must fail.
	cmd2 := cmd
	cmd2.CommandID = "bk-101"
	cmd2.StartDate = day(2026, 7, 6)
	cmd2.EndDate = day(2026, 7, 9)
	_, err = handler.Handle(ctx, cmd2)
	if !errors.Is(err, domaincoupon.ErrUsesExhausted) {
		t.Fatalf("got %v, want ErrUsesExhausted", err)
	}
}

func TestStartCheckoutInvalidCouponIsAnError(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	cpn, _ := domaincoupon.New(domaincoupon.CreateParams{
		ID: "cpn-2", Code: "OFF", Kind: domaincoupon.DiscountFixed, Value: 100,
		Active: false, Now: time.Now(),
	})
	_ = factory.CouponRepo.Save(ctx, cpn)

	handler, _ := newHandler(factory, &stubGateway{})
	cmd := baseCommand()
	cmd.CouponCode = "OFF"
	if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domaincoupon.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestStartCheckoutMinimumStay(t *testing.T) {
	ctx := context.Background()
	handler, _ := newHandler(memory.NewFactory(), &stubGateway{})
	cmd := baseCommand()
	cmd.EndDate = day(2026, 6, 3)
	if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domainrates.ErrMinimumStay) {
		t.Fatalf("got %v, want ErrMinimumStay", err)
	}
}

func TestStartCheckoutGatewayFailure(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	handler, _ := newHandler(factory, &stubGateway{fail: true})
	if _, err := handler.Handle(ctx, baseCommand()); err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestStartCheckoutNightLocksBeatStaleOverlapRead(t *testing.T) {
	// A concurrently committed hold may be invisible to the overlap read
	// (snapshot isolation); the per-night locks still conflict, so the
	// second checkout must lose even when AnyOverlapping reports nothing.
	ctx := context.Background()
	factory := memory.NewFactory()
	handler, _ := newHandler(factory, &stubGateway{})

	dr, _ := daterange.New(day(2026, 6, 2), day(2026, 6, 5))
	if err := factory.BookingRepo.HoldDates(ctx, "bk-racer", dr); err != nil {
		t.Fatalf("pre-hold: %v", err)
	}

	_, err := handler.Handle(ctx, baseCommand())
	if !errors.Is(err, domainbooking.ErrDatesUnavailable) {
		t.Fatalf("got %v, want ErrDatesUnavailable from the night locks", err)
	}
	if _, err := factory.BookingRepo.ByID(ctx, "bk-100"); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Error("losing checkout must not leave a booking behind")
	}
}
