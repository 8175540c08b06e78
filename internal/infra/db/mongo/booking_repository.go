package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "whistleinn/internal/domain/booking"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col    *mongo.Collection
	nights *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "range.start", Value: 1}, {Key: "range.end", Value: 1}, {Key: "status", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	nights := db.Collection("booking_nights")
	_, _ = nights.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "booking_id", Value: 1}},
	})
	return &BookingRepository{col: col, nights: nights}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) BySessionID(ctx context.Context, sessionID string) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	query := bson.M{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query["status"] = bson.M{"$in": statuses}
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		query["range.start"] = bson.M{"$lt": filter.To.UnixMilli()}
		query["range.end"] = bson.M{"$gt": filter.From.UnixMilli()}
	}
	if !filter.CreatedBefore.IsZero() {
		query["created_at"] = bson.M{"$lt": filter.CreatedBefore.UnixMilli()}
	}
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *BookingRepository) AnyOverlapping(ctx context.Context, dr daterange.DateRange, statuses []domainbooking.Status) (bool, error) {
	states := make([]string, 0, len(statuses))
	for _, s := range statuses {
		states = append(states, string(s))
	}
	query := bson.M{
		"status":      bson.M{"$in": states},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// HoldDates upserts one document per night keyed by the date itself. The
// unique _id is the exclusion constraint a multi-document transaction does
// not provide on its own: when two transactions race for the same night,
// only one insert can commit and the other surfaces as a duplicate key or a
// write conflict, both mapped to ErrDatesUnavailable. A night already held
// by the same booking matches the filter and is a no-op.
func (r *BookingRepository) HoldDates(ctx context.Context, id domainbooking.BookingID, dr daterange.DateRange) error {
	for _, night := range dr.Days() {
		filter := bson.M{"_id": "night-" + night.Format("2006-01-02"), "booking_id": string(id)}
		update := bson.M{"$setOnInsert": bson.M{"booking_id": string(id)}}
		_, err := r.nights.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) || hasWriteConflict(err) {
				return domainbooking.ErrDatesUnavailable
			}
			return err
		}
	}
	return nil
}

func (r *BookingRepository) ReleaseDates(ctx context.Context, id domainbooking.BookingID) error {
	_, err := r.nights.DeleteMany(ctx, bson.M{"booking_id": string(id)})
	return err
}

func hasWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorCode(112) // WriteConflict
	}
	return false
}

type bookingDocument struct {
	ID           string            `bson:"_id"`
	Range        rangeDocument     `bson:"range"`
	GuestName    string            `bson:"guest_name"`
	GuestEmail   string            `bson:"guest_email"`
	GuestPhone   string            `bson:"guest_phone"`
	Guests       int               `bson:"guests"`
	Price        breakdownDocument `bson:"price"`
	Status       string            `bson:"status"`
	PaymentRef   string            `bson:"payment_ref"`
	SessionID    string            `bson:"session_id,omitempty"`
	Notes        string            `bson:"notes"`
	CancelReason string            `bson:"cancel_reason"`
	CreatedAt    int64             `bson:"created_at"`
	UpdatedAt    int64             `bson:"updated_at"`
	Version      int64             `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type breakdownDocument struct {
	Nights             int                 `bson:"nights"`
	WeekdayNights      int                 `bson:"weekday_nights"`
	WeekendNights      int                 `bson:"weekend_nights"`
	Accommodation      moneyDocument       `bson:"accommodation"`
	CleaningFee        moneyDocument       `bson:"cleaning_fee"`
	Discount           moneyDocument       `bson:"discount"`
	Total              moneyDocument       `bson:"total"`
	AppliedRates       []appliedRateDoc    `bson:"applied_rates,omitempty"`
	CouponID           string              `bson:"coupon_id,omitempty"`
}

type appliedRateDoc struct {
	Label  string        `bson:"label"`
	Nights int           `bson:"nights"`
	Price  moneyDocument `bson:"price"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:           string(b.ID),
		Range:        rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		GuestPhone:   b.GuestPhone,
		Guests:       b.Guests,
		Price:        newBreakdownDocument(b.Price),
		Status:       string(b.Status),
		PaymentRef:   b.PaymentRef,
		SessionID:    b.SessionID,
		Notes:        b.Notes,
		CancelReason: b.CancelReason,
		CreatedAt:    b.CreatedAt.UnixMilli(),
		UpdatedAt:    b.UpdatedAt.UnixMilli(),
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:           domainbooking.BookingID(d.ID),
		Range:        daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		GuestName:    d.GuestName,
		GuestEmail:   d.GuestEmail,
		GuestPhone:   d.GuestPhone,
		Guests:       d.Guests,
		Price:        d.Price.toBreakdown(),
		Status:       domainbooking.Status(d.Status),
		PaymentRef:   d.PaymentRef,
		SessionID:    d.SessionID,
		Notes:        d.Notes,
		CancelReason: d.CancelReason,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

func newBreakdownDocument(b domainrates.Breakdown) breakdownDocument {
	doc := breakdownDocument{
		Nights:        b.Nights,
		WeekdayNights: b.WeekdayNights,
		WeekendNights: b.WeekendNights,
		Accommodation: newMoneyDocument(b.AccommodationTotal),
		CleaningFee:   newMoneyDocument(b.CleaningFee),
		Discount:      newMoneyDocument(b.DiscountAmount),
		Total:         newMoneyDocument(b.Total),
		CouponID:      b.CouponID,
	}
	for _, ar := range b.AppliedRates {
		doc.AppliedRates = append(doc.AppliedRates, appliedRateDoc{Label: ar.Label, Nights: ar.Nights, Price: newMoneyDocument(ar.Price)})
	}
	return doc
}

func (d breakdownDocument) toBreakdown() domainrates.Breakdown {
	b := domainrates.Breakdown{
		Nights:             d.Nights,
		WeekdayNights:      d.WeekdayNights,
		WeekendNights:      d.WeekendNights,
		AccommodationTotal: d.Accommodation.toMoney(),
		CleaningFee:        d.CleaningFee.toMoney(),
		DiscountAmount:     d.Discount.toMoney(),
		Total:              d.Total.toMoney(),
		CouponID:           d.CouponID,
	}
	for _, ar := range d.AppliedRates {
		b.AppliedRates = append(b.AppliedRates, domainrates.AppliedRate{Label: ar.Label, Nights: ar.Nights, Price: ar.Price.toMoney()})
	}
	return b
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
