package memory

import (
	"context"
	"sync"
	"time"

	"staybook/internal/app/middleware"
	domaintenant "staybook/internal/domain/tenant"
)

type idemKey struct {
	tenant domaintenant.ID
	key    string
}

// IdempotencyStore keeps per-key execution state in memory. Begin is atomic
// under the lock, so concurrent first calls with the same (tenant, key)
// resolve to exactly one claim holder.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[idemKey]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[idemKey]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, tenantID domaintenant.ID, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[idemKey{tenant: tenantID, key: key}]
	return rec, ok, nil
}

func (s *IdempotencyStore) Begin(ctx context.Context, tenantID domaintenant.ID, key string, now time.Time) (middleware.InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idemKey{tenant: tenantID, key: key}
	if _, exists := s.items[k]; exists {
		return middleware.AlreadyExists, nil
	}
	s.items[k] = middleware.IdempotencyRecord{TenantID: tenantID, Key: key, OccurredAt: now}
	return middleware.Inserted, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[idemKey{tenant: rec.TenantID, key: rec.Key}] = rec
	return nil
}

func (s *IdempotencyStore) Abort(ctx context.Context, tenantID domaintenant.ID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, idemKey{tenant: tenantID, key: key})
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
