package rates

import (
	"context"
	"errors"
	"time"

	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

var (
	ErrRateNotFound   = errors.New("rates: special rate not found")
	ErrLabelRequired  = errors.New("rates: label required")
	ErrNoPriceOrMulti = errors.New("rates: either a nightly price or a multiplier is required")
)

// Tier is the standard pricing bucket for a night.
type Tier string

const (
	TierWeekday Tier = "WEEKDAY"
	TierWeekend Tier = "WEEKEND"
)

// BasePricing holds the standard rate card. Values are whole currency units.
type BasePricing struct {
	WeekdayNight  money.Money
	WeekendNight  money.Money
	CleaningFee   money.Money
	MinimumNights int
}

// DefaultBasePricing mirrors the published rate card used when no override is
// configured.
func DefaultBasePricing() BasePricing {
	return BasePricing{
		WeekdayNight:  money.USD(650),
		WeekendNight:  money.USD(700),
		CleaningFee:   money.USD(150),
		MinimumNights: 3,
	}
}

// IsWeekendNight applies the site's tiering: Friday, Saturday and Sunday nights
// are priced as weekend.
func IsWeekendNight(day time.Time) bool {
	switch day.UTC().Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// SpecialRate overrides standard pricing for a date range, either with a fixed
// nightly price or a multiplier on the standard tier.
type SpecialRate struct {
	ID         string
	Label      string
	Range      daterange.DateRange
	PricePer   *money.Money
	Multiplier *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository persists admin-managed special rates.
type Repository interface {
	ByID(ctx context.Context, id string) (*SpecialRate, error)
	// Overlapping returns rates touching the given range, newest first. The
	// ordering pins the first-match-wins resolution when ranges overlap.
	Overlapping(ctx context.Context, dr daterange.DateRange) ([]*SpecialRate, error)
	List(ctx context.Context) ([]*SpecialRate, error)
	Save(ctx context.Context, rate *SpecialRate) error
	Delete(ctx context.Context, id string) error
}

type CreateParams struct {
	ID         string
	Label      string
	Range      daterange.DateRange
	PricePer   *money.Money
	Multiplier *float64
	Now        time.Time
}

func NewSpecialRate(params CreateParams) (*SpecialRate, error) {
	if params.Label == "" {
		return nil, ErrLabelRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.PricePer == nil && params.Multiplier == nil {
		return nil, ErrNoPriceOrMulti
	}
	now := params.Now.UTC()
	return &SpecialRate{
		ID:         params.ID,
		Label:      params.Label,
		Range:      params.Range,
		PricePer:   params.PricePer,
		Multiplier: params.Multiplier,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Night is one priced night of a stay.
type Night struct {
	Day   time.Time
	Tier  Tier
	Price money.Money
	Label string
}

// Table resolves a nightly price from the standard rate card and the current
// special rates.
type Table struct {
	Base     BasePricing
	Specials []*SpecialRate
}

// PriceNight prices a single calendar day. Special rates are tested in slice
// order and the first range containing a day wins; a fixed nightly price beats
// the multiplier within one rate.
func (t Table) PriceNight(day time.Time) Night {
	day = daterange.Day(day)
	standard := t.Base.WeekdayNight
	tier := TierWeekday
	if IsWeekendNight(day) {
		standard = t.Base.WeekendNight
		tier = TierWeekend
	}
	for _, rate := range t.Specials {
		if !rate.Range.ContainsDay(day) {
			continue
		}
		if rate.PricePer != nil {
			return Night{Day: day, Tier: tier, Price: *rate.PricePer, Label: rate.Label}
		}
		if rate.Multiplier != nil {
			scaled := money.Money{
				Amount:   int64(float64(standard.Amount) * *rate.Multiplier),
				Currency: standard.Currency,
			}
			return Night{Day: day, Tier: tier, Price: scaled, Label: rate.Label}
		}
	}
	return Night{Day: day, Tier: tier, Price: standard}
}
