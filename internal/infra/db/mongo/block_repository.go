package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

type BlockRepository struct {
	col   *mongo.Collection
	slots *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	col := db.Collection("calendar_block")
	rangeIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1}, {Key: "range.check_in", Value: 1}},
	}
	refIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "reference", Value: 1}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{rangeIdx, refIdx})

	slots := db.Collection("calendar_slot_claim")
	slotIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1}, {Key: "listing_id", Value: 1},
			{Key: "date", Value: 1}, {Key: "slot", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	blockIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "block_id", Value: 1}},
	}
	_, _ = slots.Indexes().CreateMany(context.Background(), []mongo.IndexModel{slotIdx, blockIdx})
	return &BlockRepository{col: col, slots: slots}
}

func (r *BlockRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]*domainavailability.Block, error) {
	// Overlap on half-open intervals: block.check_in < range.check_out and
	// block.check_out > range.check_in.
	filter := bson.M{
		"tenant_id":       string(tenantID),
		"listing_id":      string(listingID),
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainavailability.Block
	for cur.Next(ctx) {
		var doc blockDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *BlockRepository) ByReference(ctx context.Context, tenantID domaintenant.ID, reference string) (*domainavailability.Block, error) {
	filter := bson.M{"tenant_id": string(tenantID), "reference": reference}
	var doc blockDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainavailability.ErrBlockNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BlockRepository) Save(ctx context.Context, block *domainavailability.Block) error {
	doc := newBlockDocument(block)
	filter := bson.M{"_id": doc.ID, "tenant_id": doc.TenantID}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	return err
}

// ClaimSlots inserts one row per (date, slot); the unique index arbitrates
// between concurrent bookings that both saw the slot free. Insert order is
// irrelevant because the surrounding transaction rolls the batch back as a
// whole on conflict.
func (r *BlockRepository) ClaimSlots(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, blockID domainavailability.BlockID, claims []domainavailability.SlotClaim) error {
	if len(claims) == 0 {
		return nil
	}
	docs := make([]any, 0, len(claims))
	for _, c := range claims {
		docs = append(docs, slotClaimDocument{
			TenantID:  string(tenantID),
			ListingID: string(listingID),
			Date:      c.Date.Format(dateLayout),
			Slot:      c.Slot,
			BlockID:   string(blockID),
		})
	}
	if _, err := r.slots.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *BlockRepository) ReleaseSlots(ctx context.Context, tenantID domaintenant.ID, blockID domainavailability.BlockID) error {
	filter := bson.M{"tenant_id": string(tenantID), "block_id": string(blockID)}
	_, err := r.slots.DeleteMany(ctx, filter)
	return err
}

type blockDocument struct {
	ID        string        `bson:"_id"`
	TenantID  string        `bson:"tenant_id"`
	ListingID string        `bson:"listing_id"`
	Range     rangeDocument `bson:"range"`
	Kind      string        `bson:"kind"`
	Status    string        `bson:"status"`
	Inventory bool          `bson:"inventory"`
	Reference string        `bson:"reference"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type slotClaimDocument struct {
	TenantID  string `bson:"tenant_id"`
	ListingID string `bson:"listing_id"`
	Date      string `bson:"date"`
	Slot      int    `bson:"slot"`
	BlockID   string `bson:"block_id"`
}

func newBlockDocument(b *domainavailability.Block) blockDocument {
	return blockDocument{
		ID:        string(b.ID),
		TenantID:  string(b.TenantID),
		ListingID: string(b.ListingID),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Kind:      string(b.Kind),
		Status:    string(b.Status),
		Inventory: b.Inventory,
		Reference: b.Reference,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
	}
}

func (d blockDocument) toAggregate() *domainavailability.Block {
	return &domainavailability.Block{
		ID:        domainavailability.BlockID(d.ID),
		TenantID:  domaintenant.ID(d.TenantID),
		ListingID: domainlistings.ListingID(d.ListingID),
		Range: domainrange.DateRange{
			CheckIn:  timestampToTime(d.Range.CheckIn),
			CheckOut: timestampToTime(d.Range.CheckOut),
		},
		Kind:      domainavailability.BlockKind(d.Kind),
		Status:    domainavailability.BlockStatus(d.Status),
		Inventory: d.Inventory,
		Reference: d.Reference,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}
