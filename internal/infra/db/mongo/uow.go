package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork interface. The
// transaction scopes the checkout writes (hold, booking, coupon, outbox)
// into one atomic commit; the exclusion against concurrent checkouts comes
// from the uniquely keyed night documents, not from the snapshot the
// transaction reads under.
type Factory struct {
	DB *mongo.Database

	BookingRepo  domainbooking.Repository
	ExternalRepo domaincalendar.ExternalRepository
	RatesRepo    domainrates.Repository
	CouponRepo   domaincoupon.Repository
	FeedRepo     domaincalendar.FeedRepository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		bookings: f.BookingRepo,
		external: f.ExternalRepo,
		rates:    f.RatesRepo,
		coupons:  f.CouponRepo,
		feeds:    f.FeedRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	bookings domainbooking.Repository
	external domaincalendar.ExternalRepository
	rates    domainrates.Repository
	coupons  domaincoupon.Repository
	feeds    domaincalendar.FeedRepository
}

func (u *Unit) Bookings() domainbooking.Repository          { return u.bookings }
func (u *Unit) External() domaincalendar.ExternalRepository { return u.external }
func (u *Unit) Rates() domainrates.Repository               { return u.rates }
func (u *Unit) Coupons() domaincoupon.Repository            { return u.coupons }
func (u *Unit) Feeds() domaincalendar.FeedRepository        { return u.feeds }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
