package dto

import (
	"time"

	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
)

type SpecialRate struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	PricePer   *int64    `json:"price_per_night,omitempty"`
	Multiplier *float64  `json:"multiplier,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func MapSpecialRate(r *domainrates.SpecialRate) SpecialRate {
	out := SpecialRate{
		ID:         r.ID,
		Label:      r.Label,
		StartDate:  r.Range.Start,
		EndDate:    r.Range.End,
		Multiplier: r.Multiplier,
		CreatedAt:  r.CreatedAt,
	}
	if r.PricePer != nil {
		out.PricePer = &r.PricePer.Amount
	}
	return out
}

type Coupon struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Kind       string     `json:"discount_type"`
	Value      int64      `json:"value"`
	Active     bool       `json:"active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	MaxUses    *int       `json:"max_uses,omitempty"`
	UsedCount  int        `json:"used_count"`
	CreatedAt  time.Time  `json:"created_at"`
}

func MapCoupon(c *domaincoupon.Coupon) Coupon {
	return Coupon{
		ID:         c.ID,
		Code:       c.Code,
		Kind:       string(c.Kind),
		Value:      c.Value,
		Active:     c.Active,
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
		MaxUses:    c.MaxUses,
		UsedCount:  c.UsedCount,
		CreatedAt:  c.CreatedAt,
	}
}
