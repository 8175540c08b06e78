package quote

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/uow"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
)

const getQuoteKey = "quote.get"

type GetQuoteQuery struct {
	StartDate  time.Time
	EndDate    time.Time
	CouponCode string
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.Factory
	Base       domainrates.BasePricing
}

// Handle prices the stay. The result is advisory: checkout re-derives the
// breakdown server-side before any payment session is created.
func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	ctx, span := tracer().Start(ctx, "quote.get")
	defer span.End()

	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Quote{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	breakdown, _, err := Derive(ctx, unit, h.Base, DeriveParams{
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		CouponCode: q.CouponCode,
		Now:        time.Now().UTC(),
	})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(breakdown), nil
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)

// DeriveParams feed the shared quote derivation used by both the public quote
// endpoint and checkout.
type DeriveParams struct {
	StartDate  time.Time
	EndDate    time.Time
	CouponCode string
	Now        time.Time
}

// Derive builds the authoritative breakdown for a stay: nightly pricing from
// the current special rates, cleaning fee, then coupon validation and
// discount. An unusable coupon is an error, never a silent zero discount.
func Derive(ctx context.Context, unit uow.UnitOfWork, base domainrates.BasePricing, params DeriveParams) (domainrates.Breakdown, *domaincoupon.Coupon, error) {
	dr, err := daterange.New(params.StartDate, params.EndDate)
	if err != nil {
		return domainrates.Breakdown{}, nil, err
	}
	specials, err := unit.Rates().Overlapping(ctx, dr)
	if err != nil {
		return domainrates.Breakdown{}, nil, err
	}
	table := domainrates.Table{Base: base, Specials: specials}
	breakdown, err := table.Quote(dr)
	if err != nil {
		return domainrates.Breakdown{}, nil, err
	}

	if params.CouponCode == "" {
		return breakdown, nil, nil
	}
	cpn, err := unit.Coupons().ByCode(ctx, domaincoupon.NormalizeCode(params.CouponCode))
	if err != nil {
		return domainrates.Breakdown{}, nil, err
	}
	if err := cpn.Validate(params.Now); err != nil {
		return domainrates.Breakdown{}, nil, err
	}
	discount := cpn.DiscountFor(breakdown.AccommodationTotal)
	if err := breakdown.ApplyDiscount(discount, cpn.ID); err != nil {
		return domainrates.Breakdown{}, nil, err
	}
	return breakdown, cpn, nil
}

func tracer() trace.Tracer {
	return otel.Tracer("whistleinn/quote")
}
