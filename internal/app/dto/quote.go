package dto

import (
	"whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type AppliedRate struct {
	Label  string   `json:"label"`
	Nights int      `json:"nights"`
	Price  MoneyDTO `json:"price"`
}

type Quote struct {
	Nights             int           `json:"nights"`
	WeekdayNights      int           `json:"weekday_nights"`
	WeekendNights      int           `json:"weekend_nights"`
	AccommodationTotal MoneyDTO      `json:"accommodation_total"`
	CleaningFee        MoneyDTO      `json:"cleaning_fee"`
	DiscountAmount     MoneyDTO      `json:"discount_amount"`
	Total              MoneyDTO      `json:"total"`
	AppliedRates       []AppliedRate `json:"applied_rates,omitempty"`
}

func MapQuote(b rates.Breakdown) Quote {
	q := Quote{
		Nights:             b.Nights,
		WeekdayNights:      b.WeekdayNights,
		WeekendNights:      b.WeekendNights,
		AccommodationTotal: MapMoney(b.AccommodationTotal),
		CleaningFee:        MapMoney(b.CleaningFee),
		DiscountAmount:     MapMoney(b.DiscountAmount),
		Total:              MapMoney(b.Total),
	}
	for _, ar := range b.AppliedRates {
		q.AppliedRates = append(q.AppliedRates, AppliedRate{
			Label:  ar.Label,
			Nights: ar.Nights,
			Price:  MapMoney(ar.Price),
		})
	}
	return q
}
