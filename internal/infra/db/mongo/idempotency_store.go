package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/middleware"
	domaintenant "staybook/internal/domain/tenant"
)

// IdempotencyStore keeps per-key command execution state keyed by
// (tenant_id, key). The unique index makes Begin the single-winner claim;
// records expire through a TTL index so retention stays bounded.
type IdempotencyStore struct {
	col       *mongo.Collection
	retention time.Duration
}

func NewIdempotencyStore(db *mongo.Database, retention time.Duration) *IdempotencyStore {
	col := db.Collection("idempotency_record")
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	models := []mongo.IndexModel{unique}
	if retention > 0 {
		ttl := mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}
		models = append(models, ttl)
	}
	_, _ = col.Indexes().CreateMany(context.Background(), models)
	if retention <= 0 {
		retention = 168 * time.Hour
	}
	return &IdempotencyStore{col: col, retention: retention}
}

func (s *IdempotencyStore) Get(ctx context.Context, tenantID domaintenant.ID, key string) (middleware.IdempotencyRecord, bool, error) {
	filter := bson.M{"tenant_id": string(tenantID), "key": key}
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Begin(ctx context.Context, tenantID domaintenant.ID, key string, now time.Time) (middleware.InsertOutcome, error) {
	doc := idempotencyDocument{
		TenantID:   string(tenantID),
		Key:        key,
		Completed:  false,
		OccurredAt: now.UnixMilli(),
		ExpiresAt:  now.Add(s.retention),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return middleware.AlreadyExists, nil
		}
		return 0, err
	}
	return middleware.Inserted, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	filter := bson.M{"tenant_id": string(rec.TenantID), "key": rec.Key}
	update := bson.M{"$set": bson.M{
		"payload":     rec.Payload,
		"completed":   true,
		"occurred_at": rec.OccurredAt.UnixMilli(),
		"expires_at":  rec.OccurredAt.Add(s.retention),
	}}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}

func (s *IdempotencyStore) Abort(ctx context.Context, tenantID domaintenant.ID, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"tenant_id": string(tenantID), "key": key})
	return err
}

type idempotencyDocument struct {
	TenantID   string    `bson:"tenant_id"`
	Key        string    `bson:"key"`
	Payload    []byte    `bson:"payload"`
	Completed  bool      `bson:"completed"`
	OccurredAt int64     `bson:"occurred_at"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		TenantID:   domaintenant.ID(d.TenantID),
		Key:        d.Key,
		Payload:    d.Payload,
		Completed:  d.Completed,
		OccurredAt: timestampToTime(d.OccurredAt),
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
