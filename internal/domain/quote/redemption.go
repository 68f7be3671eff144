package quote

import (
	"context"
	"time"

	"staybook/internal/domain/tenant"
)

// InsertOutcome is the explicit result of an insert-if-absent write. The
// storage uniqueness constraint on (tenant, nonce) is the serialization
// point; a losing concurrent insert observes AlreadyExists instead of a
// storage error.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

// Redemption records that a (tenant, nonce) pair has been consumed, so a
// quote can never be redeemed twice inside its validity window.
type Redemption struct {
	TenantID   tenant.ID
	Nonce      string
	BookingRef string
	RedeemedAt time.Time
}

type RedemptionRepository interface {
	Insert(ctx context.Context, r Redemption) (InsertOutcome, error)
	Exists(ctx context.Context, tenantID tenant.ID, nonce string) (bool, error)
}
