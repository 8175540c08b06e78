package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "whistleinn/internal/domain/calendar"
	"whistleinn/internal/domain/shared/daterange"
)

type ExternalRepository struct {
	col *mongo.Collection
}

func NewExternalRepository(db *mongo.Database) *ExternalRepository {
	col := db.Collection("ext_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "range.start", Value: 1}, {Key: "range.end", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "source", Value: 1}},
	})
	return &ExternalRepository{col: col}
}

func (r *ExternalRepository) ByID(ctx context.Context, id string) (*domaincalendar.ExternalBooking, error) {
	var doc externalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincalendar.ErrExternalNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ExternalRepository) List(ctx context.Context) ([]*domaincalendar.ExternalBooking, error) {
	return r.find(ctx, bson.M{})
}

func (r *ExternalRepository) Overlapping(ctx context.Context, dr daterange.DateRange) ([]*domaincalendar.ExternalBooking, error) {
	return r.find(ctx, bson.M{
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	})
}

func (r *ExternalRepository) find(ctx context.Context, query bson.M) ([]*domaincalendar.ExternalBooking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domaincalendar.ExternalBooking
	for cur.Next(ctx) {
		var doc externalDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ExternalRepository) Save(ctx context.Context, eb *domaincalendar.ExternalBooking) error {
	doc := newExternalDocument(eb)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *ExternalRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domaincalendar.ErrExternalNotFound
	}
	return nil
}

// ReplaceBySource swaps a feed's entries atomically within the caller's
// transaction: delete everything attributed to the source, insert the new set.
func (r *ExternalRepository) ReplaceBySource(ctx context.Context, source string, entries []*domaincalendar.ExternalBooking) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"source": source}); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, 0, len(entries))
	for _, eb := range entries {
		docs = append(docs, newExternalDocument(eb))
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

type externalDocument struct {
	ID        string        `bson:"_id"`
	Source    string        `bson:"source"`
	GuestName string        `bson:"guest_name"`
	Range     rangeDocument `bson:"range"`
	Notes     string        `bson:"notes"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
}

func newExternalDocument(eb *domaincalendar.ExternalBooking) externalDocument {
	return externalDocument{
		ID:        eb.ID,
		Source:    eb.Source,
		GuestName: eb.GuestName,
		Range:     rangeDocument{Start: eb.Range.Start.UnixMilli(), End: eb.Range.End.UnixMilli()},
		Notes:     eb.Notes,
		CreatedAt: eb.CreatedAt.UnixMilli(),
		UpdatedAt: eb.UpdatedAt.UnixMilli(),
	}
}

func (d externalDocument) toAggregate() *domaincalendar.ExternalBooking {
	return &domaincalendar.ExternalBooking{
		ID:        d.ID,
		Source:    d.Source,
		GuestName: d.GuestName,
		Range:     daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Notes:     d.Notes,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}
