package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaintenant "staybook/internal/domain/tenant"
)

type TenantRepository struct {
	col *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) *TenantRepository {
	col := db.Collection("agg_tenant")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &TenantRepository{col: col}
}

func (r *TenantRepository) ByID(ctx context.Context, id domaintenant.ID) (*domaintenant.Tenant, error) {
	var doc tenantDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaintenant.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *TenantRepository) BySlug(ctx context.Context, slug string) (*domaintenant.Tenant, error) {
	var doc tenantDocument
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaintenant.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *TenantRepository) Save(ctx context.Context, t *domaintenant.Tenant) error {
	doc := newTenantDocument(t)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type tenantDocument struct {
	ID        string                 `bson:"_id"`
	Slug      string                 `bson:"slug"`
	Name      string                 `bson:"name"`
	Active    bool                   `bson:"active"`
	Settings  tenantSettingsDocument `bson:"settings"`
	CreatedAt int64                  `bson:"created_at"`
	UpdatedAt int64                  `bson:"updated_at"`
}

type tenantSettingsDocument struct {
	ConvenienceFeePercent float64 `bson:"convenience_fee_percent"`
	DiscountPercent       float64 `bson:"discount_percent"`
	DefaultCapacity       int     `bson:"default_capacity"`
	Currency              string  `bson:"currency"`
}

func newTenantDocument(t *domaintenant.Tenant) tenantDocument {
	return tenantDocument{
		ID:     string(t.ID),
		Slug:   t.Slug,
		Name:   t.Name,
		Active: t.Active,
		Settings: tenantSettingsDocument{
			ConvenienceFeePercent: t.Settings.ConvenienceFeePercent,
			DiscountPercent:       t.Settings.DiscountPercent,
			DefaultCapacity:       t.Settings.DefaultCapacity,
			Currency:              t.Settings.Currency,
		},
		CreatedAt: t.CreatedAt.UnixMilli(),
		UpdatedAt: t.UpdatedAt.UnixMilli(),
	}
}

func (d tenantDocument) toAggregate() *domaintenant.Tenant {
	return &domaintenant.Tenant{
		ID:     domaintenant.ID(d.ID),
		Slug:   d.Slug,
		Name:   d.Name,
		Active: d.Active,
		Settings: domaintenant.Settings{
			ConvenienceFeePercent: d.Settings.ConvenienceFeePercent,
			DiscountPercent:       d.Settings.DiscountPercent,
			DefaultCapacity:       d.Settings.DefaultCapacity,
			Currency:              d.Settings.Currency,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
