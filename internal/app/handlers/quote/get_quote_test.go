package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
	"whistleinn/internal/infra/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func saveRate(t *testing.T, factory memory.Factory, label string, start, end time.Time, pricePer money.Money) {
	t.Helper()
	dr, err := daterange.New(start, end)
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	rate, err := domainrates.NewSpecialRate(domainrates.CreateParams{
		ID:       "rate-" + label,
		Label:    label,
		Range:    dr,
		PricePer: &pricePer,
		Now:      time.Now(),
	})
	if err != nil {
		t.Fatalf("NewSpecialRate: %v", err)
	}
	if err := factory.RatesRepo.Save(context.Background(), rate); err != nil {
		t.Fatalf("save rate: %v", err)
	}
}

func saveCoupon(t *testing.T, factory memory.Factory, code string, kind domaincoupon.DiscountKind, value int64) {
	t.Helper()
	cpn, err := domaincoupon.New(domaincoupon.CreateParams{
		ID:     "cpn-" + code,
		Code:   code,
		Kind:   kind,
		Value:  value,
		Active: true,
		Now:    time.Now(),
	})
	if err != nil {
		t.Fatalf("coupon.New: %v", err)
	}
	if err := factory.CouponRepo.Save(context.Background(), cpn); err != nil {
		t.Fatalf("save coupon: %v", err)
	}
}

func TestGetQuoteStandardPricing(t *testing.T) {
	factory := memory.NewFactory()
	handler := &GetQuoteHandler{UoWFactory: factory, Base: domainrates.DefaultBasePricing()}

	// Mon 2026-06-01 to Thu 2026-06-04: three weekday nights.
	out, err := handler.Handle(context.Background(), GetQuoteQuery{
		StartDate: day(2026, 6, 1),
		EndDate:   day(2026, 6, 4),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Nights != 3 || out.WeekdayNights != 3 || out.WeekendNights != 0 {
		t.Errorf("nights = %d/%d/%d, want 3/3/0", out.Nights, out.WeekdayNights, out.WeekendNights)
	}
	if out.AccommodationTotal.Amount != 1950 {
		t.Errorf("accommodation = %d, want 1950", out.AccommodationTotal.Amount)
	}
	if out.Total.Amount != 2100 {
		t.Errorf("total = %d, want 2100", out.Total.Amount)
	}
	if out.Total.Currency != "USD" {
		t.Errorf("currency = %q, want USD", out.Total.Currency)
	}
}

func TestGetQuoteWithSpecialRateAndCoupon(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()

	saveRate(t, factory, "Summer peak", day(2026, 7, 1), day(2026, 8, 1), money.USD(900))
	saveCoupon(t, factory, "SUMMER10", domaincoupon.DiscountPercent, 10)

	handler := &GetQuoteHandler{UoWFactory: factory, Base: domainrates.DefaultBasePricing()}

	// Mon 2026-07-06 to Thu 2026-07-09, fully inside the peak window.
	out, err := handler.Handle(ctx, GetQuoteQuery{
		StartDate:  day(2026, 7, 6),
		EndDate:    day(2026, 7, 9),
		CouponCode: "summer10",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.AccommodationTotal.Amount != 2700 {
		t.Errorf("accommodation = %d, want 2700", out.AccommodationTotal.Amount)
	}
	if out.DiscountAmount.Amount != 270 {
		t.Errorf("discount = %d, want 270", out.DiscountAmount.Amount)
	}
	if out.Total.Amount != 2580 {
		t.Errorf("total = %d, want 2580 (2700 - 270 + 150)", out.Total.Amount)
	}
	if len(out.AppliedRates) != 1 || out.AppliedRates[0].Label != "Summer peak" || out.AppliedRates[0].Nights != 3 {
		t.Errorf("applied rates = %+v, want one Summer peak entry covering 3 nights", out.AppliedRates)
	}
}

func TestGetQuoteUnknownCoupon(t *testing.T) {
	factory := memory.NewFactory()
	handler := &GetQuoteHandler{UoWFactory: factory, Base: domainrates.DefaultBasePricing()}

	_, err := handler.Handle(context.Background(), GetQuoteQuery{
		StartDate:  day(2026, 6, 1),
		EndDate:    day(2026, 6, 4),
		CouponCode: "NOPE",
	})
	if !errors.Is(err, domaincoupon.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetQuoteInvalidRange(t *testing.T) {
	factory := memory.NewFactory()
	handler := &GetQuoteHandler{UoWFactory: factory, Base: domainrates.DefaultBasePricing()}

	_, err := handler.Handle(context.Background(), GetQuoteQuery{
		StartDate: day(2026, 6, 4),
		EndDate:   day(2026, 6, 1),
	})
	if !errors.Is(err, daterange.ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}
