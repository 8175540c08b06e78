package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincoupon "whistleinn/internal/domain/coupon"
)

type CouponRepository struct {
	col *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) *CouponRepository {
	col := db.Collection("coupon")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &CouponRepository{col: col}
}

func (r *CouponRepository) ByID(ctx context.Context, id string) (*domaincoupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CouponRepository) ByCode(ctx context.Context, code string) (*domaincoupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": domaincoupon.NormalizeCode(code)})
}

func (r *CouponRepository) findOne(ctx context.Context, query bson.M) (*domaincoupon.Coupon, error) {
	var doc couponDocument
	if err := r.col.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincoupon.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CouponRepository) List(ctx context.Context) ([]*domaincoupon.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domaincoupon.Coupon
	for cur.Next(ctx) {
		var doc couponDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *CouponRepository) Save(ctx context.Context, c *domaincoupon.Coupon) error {
	doc := newCouponDocument(c)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domaincoupon.ErrNotFound
	}
	return nil
}

// Redeem bumps the use counter only while it is still under the cap. The
// conditional update makes two racing checkouts on the last use impossible:
// one increments, the other matches nothing and fails.
func (r *CouponRepository) Redeem(ctx context.Context, id string) error {
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{"max_uses": nil},
			{"$expr": bson.M{"$lt": []string{"$used_count", "$max_uses"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC().UnixMilli()},
	}
	res := r.col.FindOneAndUpdate(ctx, filter, update)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domaincoupon.ErrRedeemConflict
		}
		return err
	}
	return nil
}

type couponDocument struct {
	ID         string `bson:"_id"`
	Code       string `bson:"code"`
	Kind       string `bson:"kind"`
	Value      int64  `bson:"value"`
	Active     bool   `bson:"active"`
	ValidFrom  *int64 `bson:"valid_from,omitempty"`
	ValidUntil *int64 `bson:"valid_until,omitempty"`
	MaxUses    *int   `bson:"max_uses,omitempty"`
	UsedCount  int    `bson:"used_count"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func newCouponDocument(c *domaincoupon.Coupon) couponDocument {
	doc := couponDocument{
		ID:        c.ID,
		Code:      c.Code,
		Kind:      string(c.Kind),
		Value:     c.Value,
		Active:    c.Active,
		MaxUses:   c.MaxUses,
		UsedCount: c.UsedCount,
		CreatedAt: c.CreatedAt.UnixMilli(),
		UpdatedAt: c.UpdatedAt.UnixMilli(),
	}
	if c.ValidFrom != nil {
		v := c.ValidFrom.UnixMilli()
		doc.ValidFrom = &v
	}
	if c.ValidUntil != nil {
		v := c.ValidUntil.UnixMilli()
		doc.ValidUntil = &v
	}
	return doc
}

func (d couponDocument) toAggregate() *domaincoupon.Coupon {
	c := &domaincoupon.Coupon{
		ID:        d.ID,
		Code:      d.Code,
		Kind:      domaincoupon.DiscountKind(d.Kind),
		Value:     d.Value,
		Active:    d.Active,
		MaxUses:   d.MaxUses,
		UsedCount: d.UsedCount,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
	if d.ValidFrom != nil {
		t := timestampToTime(*d.ValidFrom)
		c.ValidFrom = &t
	}
	if d.ValidUntil != nil {
		t := timestampToTime(*d.ValidUntil)
		c.ValidUntil = &t
	}
	return c
}
