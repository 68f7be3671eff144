package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	domaintenant "staybook/internal/domain/tenant"
)

const dateLayout = "2006-01-02"

type PricingRepository struct {
	col *mongo.Collection
}

func NewPricingRepository(db *mongo.Database) *PricingRepository {
	col := db.Collection("listing_pricing")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PricingRepository{col: col}
}

func (r *PricingRepository) ByListing(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID) (*domainlistings.Pricing, error) {
	filter := bson.M{"tenant_id": string(tenantID), "listing_id": string(listingID)}
	var doc pricingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNoPricing
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PricingRepository) Save(ctx context.Context, p *domainlistings.Pricing) error {
	doc := newPricingDocument(p)
	filter := bson.M{"tenant_id": doc.TenantID, "listing_id": doc.ListingID}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

type pricingDocument struct {
	TenantID          string        `bson:"tenant_id"`
	ListingID         string        `bson:"listing_id"`
	BaseNightly       moneyDocument `bson:"base_nightly"`
	WeekendNightly    moneyDocument `bson:"weekend_nightly"`
	ExtraGuestNightly moneyDocument `bson:"extra_guest_nightly"`
	Currency          string        `bson:"currency"`
	UpdatedAt         int64         `bson:"updated_at"`
}

func newPricingDocument(p *domainlistings.Pricing) pricingDocument {
	return pricingDocument{
		TenantID:          string(p.TenantID),
		ListingID:         string(p.ListingID),
		BaseNightly:       newMoneyDocument(p.BaseNightly),
		WeekendNightly:    newMoneyDocument(p.WeekendNightly),
		ExtraGuestNightly: newMoneyDocument(p.ExtraGuestNightly),
		Currency:          p.Currency,
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
	}
}

func (d pricingDocument) toAggregate() *domainlistings.Pricing {
	return &domainlistings.Pricing{
		TenantID:          domaintenant.ID(d.TenantID),
		ListingID:         domainlistings.ListingID(d.ListingID),
		BaseNightly:       d.BaseNightly.toMoney(),
		WeekendNightly:    d.WeekendNightly.toMoney(),
		ExtraGuestNightly: d.ExtraGuestNightly.toMoney(),
		Currency:          d.Currency,
		UpdatedAt:         timestampToTime(d.UpdatedAt),
	}
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type DailyRateRepository struct {
	col *mongo.Collection
}

func NewDailyRateRepository(db *mongo.Database) *DailyRateRepository {
	col := db.Collection("calendar_daily_rate")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &DailyRateRepository{col: col}
}

func (r *DailyRateRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]domainlistings.DailyRate, error) {
	filter := rangeFilter(tenantID, listingID, dr)
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainlistings.DailyRate
	for cur.Next(ctx) {
		var doc dailyRateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rate, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, cur.Err()
}

func (r *DailyRateRepository) Upsert(ctx context.Context, rate domainlistings.DailyRate) error {
	doc := newDailyRateDocument(rate)
	filter := bson.M{"tenant_id": doc.TenantID, "listing_id": doc.ListingID, "date": doc.Date}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

type dailyRateDocument struct {
	TenantID  string        `bson:"tenant_id"`
	ListingID string        `bson:"listing_id"`
	Date      string        `bson:"date"`
	Rate      moneyDocument `bson:"rate"`
	Source    string        `bson:"source"`
	Reason    string        `bson:"reason"`
	UpdatedAt int64         `bson:"updated_at"`
}

func newDailyRateDocument(rate domainlistings.DailyRate) dailyRateDocument {
	return dailyRateDocument{
		TenantID:  string(rate.TenantID),
		ListingID: string(rate.ListingID),
		Date:      rate.Date.UTC().Format(dateLayout),
		Rate:      newMoneyDocument(rate.Rate),
		Source:    string(rate.Source),
		Reason:    rate.Reason,
		UpdatedAt: rate.UpdatedAt.UnixMilli(),
	}
}

func (d dailyRateDocument) toAggregate() (domainlistings.DailyRate, error) {
	date, err := time.ParseInLocation(dateLayout, d.Date, time.UTC)
	if err != nil {
		return domainlistings.DailyRate{}, err
	}
	return domainlistings.DailyRate{
		TenantID:  domaintenant.ID(d.TenantID),
		ListingID: domainlistings.ListingID(d.ListingID),
		Date:      date,
		Rate:      d.Rate.toMoney(),
		Source:    domainlistings.RateSource(d.Source),
		Reason:    d.Reason,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}, nil
}

type DailyInventoryRepository struct {
	col *mongo.Collection
}

func NewDailyInventoryRepository(db *mongo.Database) *DailyInventoryRepository {
	col := db.Collection("calendar_daily_inventory")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &DailyInventoryRepository{col: col}
}

func (r *DailyInventoryRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]domainlistings.DailyInventory, error) {
	filter := rangeFilter(tenantID, listingID, dr)
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainlistings.DailyInventory
	for cur.Next(ctx) {
		var doc dailyInventoryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		inv, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, cur.Err()
}

func (r *DailyInventoryRepository) Upsert(ctx context.Context, inv domainlistings.DailyInventory) error {
	doc := newDailyInventoryDocument(inv)
	filter := bson.M{"tenant_id": doc.TenantID, "listing_id": doc.ListingID, "date": doc.Date}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

type dailyInventoryDocument struct {
	TenantID  string `bson:"tenant_id"`
	ListingID string `bson:"listing_id"`
	Date      string `bson:"date"`
	Units     int    `bson:"units"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newDailyInventoryDocument(inv domainlistings.DailyInventory) dailyInventoryDocument {
	return dailyInventoryDocument{
		TenantID:  string(inv.TenantID),
		ListingID: string(inv.ListingID),
		Date:      inv.Date.UTC().Format(dateLayout),
		Units:     inv.Units,
		UpdatedAt: inv.UpdatedAt.UnixMilli(),
	}
}

func (d dailyInventoryDocument) toAggregate() (domainlistings.DailyInventory, error) {
	date, err := time.ParseInLocation(dateLayout, d.Date, time.UTC)
	if err != nil {
		return domainlistings.DailyInventory{}, err
	}
	return domainlistings.DailyInventory{
		TenantID:  domaintenant.ID(d.TenantID),
		ListingID: domainlistings.ListingID(d.ListingID),
		Date:      date,
		Units:     d.Units,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}, nil
}

// rangeFilter matches calendar dates inside the half-open range. ISO date
// strings order lexicographically, so $gte/$lt on the formatted bounds is the
// same comparison as on the dates themselves.
func rangeFilter(tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) bson.M {
	return bson.M{
		"tenant_id":  string(tenantID),
		"listing_id": string(listingID),
		"date": bson.M{
			"$gte": dr.CheckIn.UTC().Format(dateLayout),
			"$lt":  dr.CheckOut.UTC().Format(dateLayout),
		},
	}
}
