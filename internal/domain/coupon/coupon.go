package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"whistleinn/internal/domain/shared/money"
)

var (
	ErrNotFound       = errors.New("coupon: not found")
	ErrInvalid        = errors.New("coupon: invalid or expired")
	ErrCodeRequired   = errors.New("coupon: code required")
	ErrValueInvalid   = errors.New("coupon: value must be positive")
	ErrUsesExhausted  = errors.New("coupon: max uses exhausted")
	ErrUnknownKind    = errors.New("coupon: unknown discount type")
	ErrRedeemConflict = errors.New("coupon: concurrent redemption exhausted the cap")
)

// DiscountKind distinguishes percentage coupons from fixed-amount ones.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "PERCENT"
	DiscountFixed   DiscountKind = "FIXED"
)

// Coupon is an admin-managed discount code. UsedCount only ever grows; the
// repository increments it conditionally so the cap cannot be oversubscribed.
type Coupon struct {
	ID         string
	Code       string
	Kind       DiscountKind
	Value      int64
	Active     bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	MaxUses    *int
	UsedCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository persists coupons. Redeem must increment the use counter only
// while it is still under the cap, in the same transaction that finalizes the
// booking.
type Repository interface {
	ByID(ctx context.Context, id string) (*Coupon, error)
	ByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]*Coupon, error)
	Save(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
	Redeem(ctx context.Context, id string) error
}

type CreateParams struct {
	ID         string
	Code       string
	Kind       DiscountKind
	Value      int64
	Active     bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	MaxUses    *int
	Now        time.Time
}

func New(params CreateParams) (*Coupon, error) {
	code := NormalizeCode(params.Code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if params.Value <= 0 {
		return nil, ErrValueInvalid
	}
	switch params.Kind {
	case DiscountPercent, DiscountFixed:
	default:
		return nil, ErrUnknownKind
	}
	now := params.Now.UTC()
	return &Coupon{
		ID:         params.ID,
		Code:       code,
		Kind:       params.Kind,
		Value:      params.Value,
		Active:     params.Active,
		ValidFrom:  params.ValidFrom,
		ValidUntil: params.ValidUntil,
		MaxUses:    params.MaxUses,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NormalizeCode canonicalizes a user-supplied code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks redeemability at the given instant. An invalid coupon is an
// error for the caller, never a silent zero discount.
func (c *Coupon) Validate(now time.Time) error {
	if !c.Active {
		return ErrInvalid
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrInvalid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ErrInvalid
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return ErrUsesExhausted
	}
	return nil
}

// DiscountFor computes the discount against the accommodation subtotal,
// clamped so it never exceeds the subtotal.
func (c *Coupon) DiscountFor(subtotal money.Money) money.Money {
	var discount money.Money
	switch c.Kind {
	case DiscountPercent:
		discount = money.Money{
			Amount:   subtotal.Amount * c.Value / 100,
			Currency: subtotal.Currency,
		}
	case DiscountFixed:
		discount = money.Money{Amount: c.Value, Currency: subtotal.Currency}
	default:
		return money.Money{Amount: 0, Currency: subtotal.Currency}
	}
	clamped, err := discount.Min(subtotal)
	if err != nil {
		return money.Money{Amount: 0, Currency: subtotal.Currency}
	}
	return clamped
}
