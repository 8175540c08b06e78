package rates

import (
	"errors"
	"testing"
	"time"

	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return dr
}

func moneyPtr(amount int64) *money.Money {
	m := money.USD(amount)
	return &m
}

func floatPtr(f float64) *float64 { return &f }

func TestQuoteStandardPricing(t *testing.T) {
	table := Table{Base: DefaultBasePricing()}

	tests := []struct {
		name          string
		start, end    time.Time
		accommodation int64
		total         int64
		weekday       int
		weekend       int
	}{
		{
			// Mon 5 Jan 2026 -> Thu 8 Jan: three weekday nights.
			name:          "all weekday",
			start:         day(2026, 1, 5),
			end:           day(2026, 1, 8),
			accommodation: 1950,
			total:         2100,
			weekday:       3,
			weekend:       0,
		},
		{
			// Thu 8 Jan -> Sun 11 Jan: Thursday is weekday, Friday and
			// Saturday nights are weekend tier.
			name:          "weekend mix",
			start:         day(2026, 1, 8),
			end:           day(2026, 1, 11),
			accommodation: 2050,
			total:         2200,
			weekday:       1,
			weekend:       2,
		},
		{
			// Fri 9 Jan -> Mon 12 Jan: Friday, Saturday and Sunday nights.
			name:          "all weekend",
			start:         day(2026, 1, 9),
			end:           day(2026, 1, 12),
			accommodation: 2100,
			total:         2250,
			weekday:       0,
			weekend:       3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := table.Quote(mustRange(t, tt.start, tt.end))
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if b.AccommodationTotal.Amount != tt.accommodation {
				t.Errorf("accommodation: got %d, want %d", b.AccommodationTotal.Amount, tt.accommodation)
			}
			if b.Total.Amount != tt.total {
				t.Errorf("total: got %d, want %d", b.Total.Amount, tt.total)
			}
			if b.WeekdayNights != tt.weekday || b.WeekendNights != tt.weekend {
				t.Errorf("night split: got %d/%d, want %d/%d", b.WeekdayNights, b.WeekendNights, tt.weekday, tt.weekend)
			}
			if b.CleaningFee.Amount != 150 {
				t.Errorf("cleaning fee: got %d, want 150", b.CleaningFee.Amount)
			}
			if !b.DiscountAmount.IsZero() {
				t.Errorf("discount should be zero without a coupon, got %d", b.DiscountAmount.Amount)
			}
		})
	}
}

func TestQuoteMinimumStay(t *testing.T) {
	table := Table{Base: DefaultBasePricing()}
	_, err := table.Quote(mustRange(t, day(2026, 1, 5), day(2026, 1, 7)))
	if !errors.Is(err, ErrMinimumStay) {
		t.Fatalf("got %v, want ErrMinimumStay", err)
	}
}

func TestQuoteFixedSpecialRate(t *testing.T) {
	// Holiday override: flat 500 per night covering 24-26 Dec 2026.
	special := &SpecialRate{
		ID:       "holiday",
		Label:    "Holiday special",
		Range:    mustRange(t, day(2026, 12, 24), day(2026, 12, 27)),
		PricePer: moneyPtr(500),
	}
	table := Table{Base: DefaultBasePricing(), Specials: []*SpecialRate{special}}

	// Wed 23 Dec -> Sat 26 Dec: one standard weekday night then two
	// override nights. The override replaces the tier price outright even
	// though 25 Dec is a Friday.
	b, err := table.Quote(mustRange(t, day(2026, 12, 23), day(2026, 12, 26)))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if b.AccommodationTotal.Amount != 1650 {
		t.Errorf("accommodation: got %d, want 1650", b.AccommodationTotal.Amount)
	}
	if b.Total.Amount != 1800 {
		t.Errorf("total: got %d, want 1800", b.Total.Amount)
	}
	if len(b.AppliedRates) != 1 {
		t.Fatalf("applied rates: got %d, want 1", len(b.AppliedRates))
	}
	applied := b.AppliedRates[0]
	if applied.Label != "Holiday special" || applied.Nights != 2 || applied.Price.Amount != 500 {
		t.Errorf("unexpected applied rate: %+v", applied)
	}
}

func TestQuoteMultiplierSpecialRate(t *testing.T) {
	special := &SpecialRate{
		ID:         "peak",
		Label:      "Peak season",
		Range:      mustRange(t, day(2026, 1, 9), day(2026, 1, 12)),
		Multiplier: floatPtr(1.5),
	}
	table := Table{Base: DefaultBasePricing(), Specials: []*SpecialRate{special}}

	// Fri 9 Jan -> Mon 12 Jan: three weekend nights at 700 * 1.5.
	b, err := table.Quote(mustRange(t, day(2026, 1, 9), day(2026, 1, 12)))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if b.AccommodationTotal.Amount != 3150 {
		t.Errorf("accommodation: got %d, want 3150", b.AccommodationTotal.Amount)
	}
}

func TestPriceNightFirstMatchWins(t *testing.T) {
	dr := mustRange(t, day(2026, 1, 5), day(2026, 1, 8))
	newer := &SpecialRate{ID: "newer", Label: "Newer", Range: dr, PricePer: moneyPtr(400)}
	older := &SpecialRate{ID: "older", Label: "Older", Range: dr, PricePer: moneyPtr(300)}
	// Repositories return specials newest first; the table must honor that
	// ordering when ranges overlap.
	table := Table{Base: DefaultBasePricing(), Specials: []*SpecialRate{newer, older}}

	night := table.PriceNight(day(2026, 1, 6))
	if night.Price.Amount != 400 || night.Label != "Newer" {
		t.Errorf("got %d (%s), want the newer rate to win", night.Price.Amount, night.Label)
	}
}

func TestPriceNightFixedBeatsMultiplier(t *testing.T) {
	special := &SpecialRate{
		ID:         "both",
		Label:      "Both set",
		Range:      mustRange(t, day(2026, 1, 5), day(2026, 1, 8)),
		PricePer:   moneyPtr(420),
		Multiplier: floatPtr(2.0),
	}
	table := Table{Base: DefaultBasePricing(), Specials: []*SpecialRate{special}}
	night := table.PriceNight(day(2026, 1, 6))
	if night.Price.Amount != 420 {
		t.Errorf("got %d, want the fixed price 420", night.Price.Amount)
	}
}

func TestApplyDiscount(t *testing.T) {
	table := Table{Base: DefaultBasePricing()}

	t.Run("percent discount", func(t *testing.T) {
		b, err := table.Quote(mustRange(t, day(2026, 1, 5), day(2026, 1, 8)))
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if err := b.ApplyDiscount(money.USD(195), "cpn-1"); err != nil {
			t.Fatalf("ApplyDiscount: %v", err)
		}
		if b.Total.Amount != 1905 {
			t.Errorf("total: got %d, want 1905", b.Total.Amount)
		}
		if b.CouponID != "cpn-1" {
			t.Errorf("coupon id not recorded: %q", b.CouponID)
		}
	})

	t.Run("clamped to accommodation", func(t *testing.T) {
		b, err := table.Quote(mustRange(t, day(2026, 1, 5), day(2026, 1, 8)))
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		// The discount never eats into the cleaning fee.
		if err := b.ApplyDiscount(money.USD(5000), "cpn-2"); err != nil {
			t.Fatalf("ApplyDiscount: %v", err)
		}
		if b.DiscountAmount.Amount != 1950 {
			t.Errorf("discount: got %d, want 1950", b.DiscountAmount.Amount)
		}
		if b.Total.Amount != 150 {
			t.Errorf("total: got %d, want the cleaning fee 150", b.Total.Amount)
		}
	})
}

func TestIsWeekendNight(t *testing.T) {
	tests := []struct {
		day  time.Time
		want bool
	}{
		{day(2026, 1, 5), false},  // Monday
		{day(2026, 1, 8), false},  // Thursday
		{day(2026, 1, 9), true},   // Friday
		{day(2026, 1, 10), true},  // Saturday
		{day(2026, 1, 11), true},  // Sunday
		{day(2026, 1, 12), false}, // Monday
	}
	for _, tt := range tests {
		if got := IsWeekendNight(tt.day); got != tt.want {
			t.Errorf("IsWeekendNight(%s): got %v, want %v", tt.day.Weekday(), got, tt.want)
		}
	}
}
