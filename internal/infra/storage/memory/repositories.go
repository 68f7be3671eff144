package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

// tenantKey scopes every map by tenant so cross-tenant reads are impossible
// by construction.
type tenantKey struct {
	tenant domaintenant.ID
	id     string
}

type dateKey struct {
	tenant  domaintenant.ID
	listing domainlistings.ListingID
	date    string
}

func dayKey(tenantID domaintenant.ID, listingID domainlistings.ListingID, date string) dateKey {
	return dateKey{tenant: tenantID, listing: listingID, date: date}
}

// TenantRepository stores tenants in memory.
type TenantRepository struct {
	mu     sync.RWMutex
	byID   map[domaintenant.ID]*domaintenant.Tenant
	bySlug map[string]*domaintenant.Tenant
}

func NewTenantRepository() *TenantRepository {
	return &TenantRepository{
		byID:   make(map[domaintenant.ID]*domaintenant.Tenant),
		bySlug: make(map[string]*domaintenant.Tenant),
	}
}

func (r *TenantRepository) ByID(ctx context.Context, id domaintenant.ID) (*domaintenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domaintenant.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *TenantRepository) BySlug(ctx context.Context, slug string) (*domaintenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySlug[slug]
	if !ok {
		return nil, domaintenant.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *TenantRepository) Save(ctx context.Context, t *domaintenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.byID[t.ID] = &clone
	r.bySlug[t.Slug] = &clone
	return nil
}

// ListingRepository stores listings in memory, keyed by tenant and id.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[tenantKey]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[tenantKey]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, tenantID domaintenant.ID, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[tenantKey{tenant: tenantID, id: string(id)}]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *listing
	r.items[tenantKey{tenant: listing.TenantID, id: string(listing.ID)}] = &clone
	return nil
}

// PricingRepository stores listing rate cards in memory.
type PricingRepository struct {
	mu    sync.RWMutex
	items map[tenantKey]*domainlistings.Pricing
}

func NewPricingRepository() *PricingRepository {
	return &PricingRepository{items: make(map[tenantKey]*domainlistings.Pricing)}
}

func (r *PricingRepository) ByListing(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID) (*domainlistings.Pricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[tenantKey{tenant: tenantID, id: string(listingID)}]
	if !ok {
		return nil, domainlistings.ErrNoPricing
	}
	clone := *p
	return &clone, nil
}

func (r *PricingRepository) Save(ctx context.Context, p *domainlistings.Pricing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.items[tenantKey{tenant: p.TenantID, id: string(p.ListingID)}] = &clone
	return nil
}

// DailyRateRepository stores per-date rate overrides, unique per
// (tenant, listing, date).
type DailyRateRepository struct {
	mu    sync.RWMutex
	items map[dateKey]domainlistings.DailyRate
}

func NewDailyRateRepository() *DailyRateRepository {
	return &DailyRateRepository{items: make(map[dateKey]domainlistings.DailyRate)}
}

func (r *DailyRateRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]domainlistings.DailyRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainlistings.DailyRate
	for _, date := range dr.Dates() {
		if rate, ok := r.items[dayKey(tenantID, listingID, date.Format("2006-01-02"))]; ok {
			out = append(out, rate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *DailyRateRepository) Upsert(ctx context.Context, rate domainlistings.DailyRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[dayKey(rate.TenantID, rate.ListingID, rate.Date.Format("2006-01-02"))] = rate
	return nil
}

// DailyInventoryRepository stores per-date unit overrides, unique per
// (tenant, listing, date).
type DailyInventoryRepository struct {
	mu    sync.RWMutex
	items map[dateKey]domainlistings.DailyInventory
}

func NewDailyInventoryRepository() *DailyInventoryRepository {
	return &DailyInventoryRepository{items: make(map[dateKey]domainlistings.DailyInventory)}
}

func (r *DailyInventoryRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]domainlistings.DailyInventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainlistings.DailyInventory
	for _, date := range dr.Dates() {
		if inv, ok := r.items[dayKey(tenantID, listingID, date.Format("2006-01-02"))]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *DailyInventoryRepository) Upsert(ctx context.Context, inv domainlistings.DailyInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[dayKey(inv.TenantID, inv.ListingID, inv.Date.Format("2006-01-02"))] = inv
	return nil
}

type slotKey struct {
	tenant  domaintenant.ID
	listing domainlistings.ListingID
	date    string
	slot    int
}

// BlockRepository stores availability blocks in memory. Slot rows are claimed
// atomically under the lock, mirroring the unique
// (tenant, listing, date, slot) index the persistent store enforces.
type BlockRepository struct {
	mu    sync.RWMutex
	items map[tenantKey]*domainavailability.Block
	slots map[slotKey]domainavailability.BlockID
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{
		items: make(map[tenantKey]*domainavailability.Block),
		slots: make(map[slotKey]domainavailability.BlockID),
	}
}

func (r *BlockRepository) ForRange(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, dr domainrange.DateRange) ([]*domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainavailability.Block
	for key, b := range r.items {
		if key.tenant != tenantID || b.ListingID != listingID {
			continue
		}
		if !b.Range.Overlaps(dr) {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.CheckIn.Before(out[j].Range.CheckIn) })
	return out, nil
}

func (r *BlockRepository) ByReference(ctx context.Context, tenantID domaintenant.ID, reference string) (*domainavailability.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, b := range r.items {
		if key.tenant == tenantID && b.Reference == reference {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domainavailability.ErrBlockNotFound
}

func (r *BlockRepository) Save(ctx context.Context, block *domainavailability.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *block
	r.items[tenantKey{tenant: block.TenantID, id: string(block.ID)}] = &clone
	return nil
}

func (r *BlockRepository) ClaimSlots(ctx context.Context, tenantID domaintenant.ID, listingID domainlistings.ListingID, blockID domainavailability.BlockID, claims []domainavailability.SlotClaim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]slotKey, 0, len(claims))
	for _, c := range claims {
		k := slotKey{tenant: tenantID, listing: listingID, date: c.Date.Format("2006-01-02"), slot: c.Slot}
		if holder, taken := r.slots[k]; taken && holder != blockID {
			return domainavailability.ErrSlotTaken
		}
		keys = append(keys, k)
	}
	for _, k := range keys {
		r.slots[k] = blockID
	}
	return nil
}

func (r *BlockRepository) ReleaseSlots(ctx context.Context, tenantID domaintenant.ID, blockID domainavailability.BlockID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, holder := range r.slots {
		if k.tenant == tenantID && holder == blockID {
			delete(r.slots, k)
		}
	}
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[tenantKey]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[tenantKey]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, tenantID domaintenant.ID, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[tenantKey{tenant: tenantID, id: string(id)}]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	r.items[tenantKey{tenant: b.TenantID, id: string(b.ID)}] = &clone
	return nil
}
