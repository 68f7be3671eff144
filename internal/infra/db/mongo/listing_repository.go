package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	domaintenant "staybook/internal/domain/tenant"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, tenantID domaintenant.ID, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	filter := bson.M{"_id": string(id), "tenant_id": string(tenantID)}
	var doc listingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "tenant_id": doc.TenantID}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

type listingDocument struct {
	ID         string `bson:"_id"`
	TenantID   string `bson:"tenant_id"`
	PropertyID string `bson:"property_id"`
	Title      string `bson:"title"`
	State      string `bson:"state"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:         string(l.ID),
		TenantID:   string(l.TenantID),
		PropertyID: string(l.PropertyID),
		Title:      l.Title,
		State:      string(l.State),
		CreatedAt:  l.CreatedAt.UnixMilli(),
		UpdatedAt:  l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:         domainlistings.ListingID(d.ID),
		TenantID:   domaintenant.ID(d.TenantID),
		PropertyID: domainlistings.PropertyID(d.PropertyID),
		Title:      d.Title,
		State:      domainlistings.ListingState(d.State),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
}
