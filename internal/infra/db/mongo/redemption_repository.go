package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
)

// RedemptionRepository persists consumed quote nonces. The unique index over
// (tenant_id, nonce) is the serialization point for concurrent redeems.
type RedemptionRepository struct {
	col *mongo.Collection
}

func NewRedemptionRepository(db *mongo.Database) *RedemptionRepository {
	col := db.Collection("quote_redemption")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "nonce", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RedemptionRepository{col: col}
}

func (r *RedemptionRepository) Insert(ctx context.Context, red domainquote.Redemption) (domainquote.InsertOutcome, error) {
	doc := bson.M{
		"tenant_id":   string(red.TenantID),
		"nonce":       red.Nonce,
		"booking_ref": red.BookingRef,
		"redeemed_at": red.RedeemedAt.UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainquote.AlreadyExists, nil
		}
		return 0, err
	}
	return domainquote.Inserted, nil
}

func (r *RedemptionRepository) Exists(ctx context.Context, tenantID domaintenant.ID, nonce string) (bool, error) {
	filter := bson.M{"tenant_id": string(tenantID), "nonce": nonce}
	err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
