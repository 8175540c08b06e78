package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

type RatesRepository struct {
	col *mongo.Collection
}

func NewRatesRepository(db *mongo.Database) *RatesRepository {
	col := db.Collection("special_rate")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "range.start", Value: 1}, {Key: "range.end", Value: 1}},
	})
	return &RatesRepository{col: col}
}

func (r *RatesRepository) ByID(ctx context.Context, id string) (*domainrates.SpecialRate, error) {
	var doc rateDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrates.ErrRateNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Overlapping returns rates touching the range, newest first. The sort order
// is load-bearing: when ranges overlap, the most recently created rate wins.
func (r *RatesRepository) Overlapping(ctx context.Context, dr daterange.DateRange) ([]*domainrates.SpecialRate, error) {
	query := bson.M{
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	return r.find(ctx, query)
}

func (r *RatesRepository) List(ctx context.Context) ([]*domainrates.SpecialRate, error) {
	return r.find(ctx, bson.M{})
}

func (r *RatesRepository) find(ctx context.Context, query bson.M) ([]*domainrates.SpecialRate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainrates.SpecialRate
	for cur.Next(ctx) {
		var doc rateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *RatesRepository) Save(ctx context.Context, rate *domainrates.SpecialRate) error {
	doc := newRateDocument(rate)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *RatesRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrates.ErrRateNotFound
	}
	return nil
}

type rateDocument struct {
	ID         string         `bson:"_id"`
	Label      string         `bson:"label"`
	Range      rangeDocument  `bson:"range"`
	PricePer   *moneyDocument `bson:"price_per,omitempty"`
	Multiplier *float64       `bson:"multiplier,omitempty"`
	CreatedAt  int64          `bson:"created_at"`
	UpdatedAt  int64          `bson:"updated_at"`
}

func newRateDocument(rate *domainrates.SpecialRate) rateDocument {
	doc := rateDocument{
		ID:         rate.ID,
		Label:      rate.Label,
		Range:      rangeDocument{Start: rate.Range.Start.UnixMilli(), End: rate.Range.End.UnixMilli()},
		Multiplier: rate.Multiplier,
		CreatedAt:  rate.CreatedAt.UnixMilli(),
		UpdatedAt:  rate.UpdatedAt.UnixMilli(),
	}
	if rate.PricePer != nil {
		md := newMoneyDocument(*rate.PricePer)
		doc.PricePer = &md
	}
	return doc
}

func (d rateDocument) toAggregate() *domainrates.SpecialRate {
	rate := &domainrates.SpecialRate{
		ID:         d.ID,
		Label:      d.Label,
		Range:      daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Multiplier: d.Multiplier,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
	if d.PricePer != nil {
		price := money.Money{Amount: d.PricePer.Amount, Currency: d.PricePer.Currency}
		rate.PricePer = &price
	}
	return rate
}
