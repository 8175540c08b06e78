package uow

import (
	"context"

	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// checkout path relies on it: the availability check and the pending insert
// run in the same transaction, so concurrent checkouts cannot both hold the
// same dates.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	External() domaincalendar.ExternalRepository
	Rates() domainrates.Repository
	Coupons() domaincoupon.Repository
	Feeds() domaincalendar.FeedRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
