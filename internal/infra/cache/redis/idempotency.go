package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/middleware"
	domaintenant "staybook/internal/domain/tenant"
)

var ErrClientRequired = errors.New("redis: idempotency store requires a client")

// IdempotencyStore keeps per-key command execution state in Redis with a TTL.
// SET NX on the tenant-scoped key is the single-winner claim; records simply
// age out instead of needing a sweeper. An incomplete claim carries a short
// TTL of its own so a crashed holder cannot wedge the key forever.
type IdempotencyStore struct {
	Client   *redis.Client
	TTL      time.Duration
	ClaimTTL time.Duration
	Prefix   string
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &IdempotencyStore{Client: client, TTL: ttl, ClaimTTL: time.Minute, Prefix: "idem"}
}

func (s *IdempotencyStore) Get(ctx context.Context, tenantID domaintenant.ID, key string) (middleware.IdempotencyRecord, bool, error) {
	if s.Client == nil {
		return middleware.IdempotencyRecord{}, false, ErrClientRequired
	}
	raw, err := s.Client.Get(ctx, s.key(tenantID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	var entry storedRecord
	if err := json.Unmarshal(raw, &entry); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return entry.toRecord(tenantID, key), true, nil
}

func (s *IdempotencyStore) Begin(ctx context.Context, tenantID domaintenant.ID, key string, now time.Time) (middleware.InsertOutcome, error) {
	if s.Client == nil {
		return 0, ErrClientRequired
	}
	raw, err := json.Marshal(storedRecord{OccurredAt: now.UnixMilli()})
	if err != nil {
		return 0, err
	}
	ok, err := s.Client.SetNX(ctx, s.key(tenantID, key), raw, s.claimTTL()).Result()
	if err != nil {
		return 0, err
	}
	if !ok {
		return middleware.AlreadyExists, nil
	}
	return middleware.Inserted, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	if s.Client == nil {
		return ErrClientRequired
	}
	raw, err := json.Marshal(storedRecord{
		Payload:    rec.Payload,
		Completed:  true,
		OccurredAt: rec.OccurredAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(rec.TenantID, rec.Key), raw, s.TTL).Err()
}

func (s *IdempotencyStore) Abort(ctx context.Context, tenantID domaintenant.ID, key string) error {
	if s.Client == nil {
		return ErrClientRequired
	}
	return s.Client.Del(ctx, s.key(tenantID, key)).Err()
}

func (s *IdempotencyStore) claimTTL() time.Duration {
	if s.ClaimTTL <= 0 {
		return time.Minute
	}
	return s.ClaimTTL
}

func (s *IdempotencyStore) key(tenantID domaintenant.ID, key string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "idem"
	}
	return prefix + ":" + string(tenantID) + ":" + key
}

type storedRecord struct {
	Payload    json.RawMessage `json:"payload"`
	Completed  bool            `json:"completed"`
	OccurredAt int64           `json:"occurred_at"`
}

func (r storedRecord) toRecord(tenantID domaintenant.ID, key string) middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		TenantID:   tenantID,
		Key:        key,
		Payload:    r.Payload,
		Completed:  r.Completed,
		OccurredAt: time.UnixMilli(r.OccurredAt).UTC(),
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
