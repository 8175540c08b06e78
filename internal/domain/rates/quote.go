package rates

import (
	"errors"
	"fmt"

	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

var ErrMinimumStay = errors.New("rates: stay below minimum nights")

// AppliedRate summarizes which special rate covered how many nights of a stay.
type AppliedRate struct {
	Label  string      `json:"label" bson:"label"`
	Nights int         `json:"nights" bson:"nights"`
	Price  money.Money `json:"price" bson:"price"`
}

// Breakdown is the priced itemization of a stay. It is advisory for display;
// checkout re-derives it server-side before any money moves.
type Breakdown struct {
	Nights             int           `json:"nights" bson:"nights"`
	WeekdayNights      int           `json:"weekday_nights" bson:"weekday_nights"`
	WeekendNights      int           `json:"weekend_nights" bson:"weekend_nights"`
	AccommodationTotal money.Money   `json:"accommodation_total" bson:"accommodation_total"`
	CleaningFee        money.Money   `json:"cleaning_fee" bson:"cleaning_fee"`
	DiscountAmount     money.Money   `json:"discount_amount" bson:"discount_amount"`
	Total              money.Money   `json:"total" bson:"total"`
	AppliedRates       []AppliedRate `json:"applied_rates,omitempty" bson:"applied_rates,omitempty"`
	CouponID           string        `json:"-" bson:"coupon_id,omitempty"`
}

// Quote prices every night of [Start, End), adds the cleaning fee and enforces
// the minimum-stay threshold. Discounts are applied afterwards via
// ApplyDiscount.
func (t Table) Quote(dr daterange.DateRange) (Breakdown, error) {
	if err := dr.Validate(); err != nil {
		return Breakdown{}, err
	}
	nights := dr.Nights()
	if nights < t.Base.MinimumNights {
		return Breakdown{}, fmt.Errorf("%w: %d night(s), minimum %d", ErrMinimumStay, nights, t.Base.MinimumNights)
	}

	b := Breakdown{
		Nights:             nights,
		AccommodationTotal: money.Money{Currency: t.Base.WeekdayNight.Currency},
		CleaningFee:        t.Base.CleaningFee,
		DiscountAmount:     money.Money{Currency: t.Base.WeekdayNight.Currency},
	}
	appliedIdx := map[string]int{}
	for _, day := range dr.Days() {
		night := t.PriceNight(day)
		total, err := b.AccommodationTotal.Add(night.Price)
		if err != nil {
			return Breakdown{}, err
		}
		b.AccommodationTotal = total
		if night.Tier == TierWeekend {
			b.WeekendNights++
		} else {
			b.WeekdayNights++
		}
		if night.Label == "" {
			continue
		}
		if i, ok := appliedIdx[night.Label]; ok {
			b.AppliedRates[i].Nights++
		} else {
			appliedIdx[night.Label] = len(b.AppliedRates)
			b.AppliedRates = append(b.AppliedRates, AppliedRate{Label: night.Label, Nights: 1, Price: night.Price})
		}
	}

	total, err := b.AccommodationTotal.Add(b.CleaningFee)
	if err != nil {
		return Breakdown{}, err
	}
	b.Total = total
	return b, nil
}

// ApplyDiscount records a discount (already clamped to the accommodation
// subtotal) and recomputes the total.
func (b *Breakdown) ApplyDiscount(discount money.Money, couponID string) error {
	clamped, err := discount.Min(b.AccommodationTotal)
	if err != nil {
		return err
	}
	b.DiscountAmount = clamped
	b.CouponID = couponID
	withFee, err := b.AccommodationTotal.Add(b.CleaningFee)
	if err != nil {
		return err
	}
	total, err := withFee.Sub(clamped)
	if err != nil {
		return err
	}
	b.Total = total
	return nil
}
