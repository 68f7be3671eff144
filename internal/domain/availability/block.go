package availability

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/tenant"
)

var (
	ErrBlockNotFound = errors.New("availability: block not found")
	ErrRangeBlocked  = errors.New("availability: range overlaps with an active block")
	ErrSlotTaken     = errors.New("availability: unit slot already claimed")
)

type BlockID string

type BlockKind string

const (
	KindBooking    BlockKind = "BOOKING"
	KindManualHold BlockKind = "MANUAL_HOLD"
)

type BlockStatus string

const (
	StatusActive    BlockStatus = "ACTIVE"
	StatusCancelled BlockStatus = "CANCELLED"
)

// Block marks a half-open date interval on a listing as taken. Inventory
// distinguishes "consumes a unit" from an informational hold that only
// forbids whole-listing exclusivity. Cancelled blocks stay on record and are
// excluded from every availability computation.
type Block struct {
	ID        BlockID
	TenantID  tenant.ID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Kind      BlockKind
	Status    BlockStatus
	Inventory bool
	Reference string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBlock(id BlockID, tenantID tenant.ID, listingID listings.ListingID, dr daterange.DateRange, kind BlockKind, inventory bool, reference string, now time.Time) *Block {
	if kind == "" {
		kind = KindManualHold
	}
	return &Block{
		ID:        id,
		TenantID:  tenantID,
		ListingID: listingID,
		Range:     dr,
		Kind:      kind,
		Status:    StatusActive,
		Inventory: inventory,
		Reference: reference,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (b *Block) Active() bool {
	return b.Status == StatusActive
}

func (b *Block) Cancel(now time.Time) {
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
}

// SlotClaim reserves one unit slot on one date for a block. The
// (tenant, listing, date, slot) tuple is unique at the storage layer and acts
// as the final arbiter between racing bookings: two writers claiming the same
// slot resolve to one winner regardless of what either read beforehand.
type SlotClaim struct {
	Date time.Time
	Slot int
}

// SlotClaimsFor expands a block's range into one claim per date for each of
// the requested units, starting at the first free slot index per date.
// firstFree maps a date (midnight UTC) to the number of slots already
// consumed there; dates absent from the map start at slot zero.
func SlotClaimsFor(dr daterange.DateRange, firstFree map[time.Time]int, units int) []SlotClaim {
	if units <= 0 {
		units = 1
	}
	dates := dr.Dates()
	claims := make([]SlotClaim, 0, len(dates)*units)
	for _, date := range dates {
		base := firstFree[date]
		for u := 0; u < units; u++ {
			claims = append(claims, SlotClaim{Date: date, Slot: base + u})
		}
	}
	return claims
}

type BlockRepository interface {
	// ForRange returns every block, active or cancelled, overlapping the
	// half-open range on the listing.
	ForRange(ctx context.Context, tenantID tenant.ID, listingID listings.ListingID, dr daterange.DateRange) ([]*Block, error)
	ByReference(ctx context.Context, tenantID tenant.ID, reference string) (*Block, error)
	Save(ctx context.Context, block *Block) error
	// ClaimSlots writes the block's per-date slot rows, all or nothing,
	// against the unique (tenant, listing, date, slot) constraint. Returns
	// ErrSlotTaken when any slot is already held by another block.
	ClaimSlots(ctx context.Context, tenantID tenant.ID, listingID listings.ListingID, blockID BlockID, claims []SlotClaim) error
	// ReleaseSlots frees every slot row the block holds, making its dates
	// claimable again after cancellation.
	ReleaseSlots(ctx context.Context, tenantID tenant.ID, blockID BlockID) error
}
