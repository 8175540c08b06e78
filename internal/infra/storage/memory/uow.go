package memory

import (
	"context"

	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
)

// Factory produces units of work over the shared in-memory repositories.
// There is no real transaction: commit and rollback are no-ops, which is
// acceptable for tests and single-process local runs.
type Factory struct {
	BookingRepo  domainbooking.Repository
	ExternalRepo domaincalendar.ExternalRepository
	RatesRepo    domainrates.Repository
	CouponRepo   domaincoupon.Repository
	FeedRepo     domaincalendar.FeedRepository
}

// NewFactory builds a factory with fresh repositories.
func NewFactory() Factory {
	return Factory{
		BookingRepo:  NewBookingRepository(),
		ExternalRepo: NewExternalRepository(),
		RatesRepo:    NewRatesRepository(),
		CouponRepo:   NewCouponRepository(),
		FeedRepo:     NewFeedRepository(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory Factory
}

func (u *Unit) Bookings() domainbooking.Repository          { return u.factory.BookingRepo }
func (u *Unit) External() domaincalendar.ExternalRepository { return u.factory.ExternalRepo }
func (u *Unit) Rates() domainrates.Repository               { return u.factory.RatesRepo }
func (u *Unit) Coupons() domaincoupon.Repository            { return u.factory.CouponRepo }
func (u *Unit) Feeds() domaincalendar.FeedRepository        { return u.factory.FeedRepo }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.Factory = Factory{}
