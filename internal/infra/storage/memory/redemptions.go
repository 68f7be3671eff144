package memory

import (
	"context"
	"sync"

	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
)

type nonceKey struct {
	tenant domaintenant.ID
	nonce  string
}

// RedemptionRepository enforces single use of quote nonces in memory. The
// map slot plays the role of the (tenant, nonce) unique constraint: the
// first insert wins, every later one observes AlreadyExists.
type RedemptionRepository struct {
	mu    sync.Mutex
	items map[nonceKey]domainquote.Redemption
}

func NewRedemptionRepository() *RedemptionRepository {
	return &RedemptionRepository{items: make(map[nonceKey]domainquote.Redemption)}
}

func (r *RedemptionRepository) Insert(ctx context.Context, red domainquote.Redemption) (domainquote.InsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := nonceKey{tenant: red.TenantID, nonce: red.Nonce}
	if _, exists := r.items[k]; exists {
		return domainquote.AlreadyExists, nil
	}
	r.items[k] = red
	return domainquote.Inserted, nil
}

func (r *RedemptionRepository) Exists(ctx context.Context, tenantID domaintenant.ID, nonce string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[nonceKey{tenant: tenantID, nonce: nonce}]
	return ok, nil
}

var _ domainquote.RedemptionRepository = (*RedemptionRepository)(nil)
