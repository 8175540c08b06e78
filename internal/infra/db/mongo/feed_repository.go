package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "whistleinn/internal/domain/calendar"
)

type FeedRepository struct {
	col *mongo.Collection
}

func NewFeedRepository(db *mongo.Database) *FeedRepository {
	col := db.Collection("ical_feed")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &FeedRepository{col: col}
}

func (r *FeedRepository) ByID(ctx context.Context, id string) (*domaincalendar.Feed, error) {
	var doc feedDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincalendar.ErrFeedNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *FeedRepository) List(ctx context.Context) ([]*domaincalendar.Feed, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domaincalendar.Feed
	for cur.Next(ctx) {
		var doc feedDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *FeedRepository) Save(ctx context.Context, f *domaincalendar.Feed) error {
	doc := newFeedDocument(f)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domaincalendar.ErrFeedNotFound
	}
	return nil
}

type feedDocument struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	Source     string `bson:"source"`
	URL        string `bson:"url"`
	Enabled    bool   `bson:"enabled"`
	LastSyncAt *int64 `bson:"last_sync_at,omitempty"`
	SyncStatus string `bson:"sync_status"`
	SyncError  string `bson:"sync_error"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func newFeedDocument(f *domaincalendar.Feed) feedDocument {
	doc := feedDocument{
		ID:         f.ID,
		Name:       f.Name,
		Source:     f.Source,
		URL:        f.URL,
		Enabled:    f.Enabled,
		SyncStatus: string(f.SyncStatus),
		SyncError:  f.SyncError,
		CreatedAt:  f.CreatedAt.UnixMilli(),
		UpdatedAt:  f.UpdatedAt.UnixMilli(),
	}
	if f.LastSyncAt != nil {
		v := f.LastSyncAt.UnixMilli()
		doc.LastSyncAt = &v
	}
	return doc
}

func (d feedDocument) toAggregate() *domaincalendar.Feed {
	f := &domaincalendar.Feed{
		ID:         d.ID,
		Name:       d.Name,
		Source:     d.Source,
		URL:        d.URL,
		Enabled:    d.Enabled,
		SyncStatus: domaincalendar.SyncStatus(d.SyncStatus),
		SyncError:  d.SyncError,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
	if d.LastSyncAt != nil {
		t := time.UnixMilli(*d.LastSyncAt).UTC()
		f.LastSyncAt = &t
	}
	return f
}
