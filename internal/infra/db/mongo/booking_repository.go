package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, tenantID domaintenant.ID, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	filter := bson.M{"_id": string(id), "tenant_id": string(tenantID)}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "tenant_id": doc.TenantID}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	TenantID  string        `bson:"tenant_id"`
	ListingID string        `bson:"listing_id"`
	Range     rangeDocument `bson:"range"`
	Guests    int           `bson:"guests"`
	Units     int           `bson:"units"`
	Total     moneyDocument `bson:"total"`
	Status    string        `bson:"status"`
	Nonce     string        `bson:"nonce"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		TenantID:  string(b.TenantID),
		ListingID: string(b.ListingID),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:    b.Guests,
		Units:     b.Units,
		Total:     newMoneyDocument(b.Total),
		Status:    string(b.Status),
		Nonce:     b.Nonce,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		TenantID:  domaintenant.ID(d.TenantID),
		ListingID: domainlistings.ListingID(d.ListingID),
		Range: domainrange.DateRange{
			CheckIn:  timestampToTime(d.Range.CheckIn),
			CheckOut: timestampToTime(d.Range.CheckOut),
		},
		Guests:    d.Guests,
		Units:     d.Units,
		Total:     d.Total.toMoney(),
		Status:    domainbooking.Status(d.Status),
		Nonce:     d.Nonce,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}
