package memory

import (
	"context"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
)

// Factory hands out units of work over the shared in-memory repositories.
// Writes apply immediately; Commit and Rollback are no-ops, which is enough
// for local runs and unit tests that don't exercise storage-level aborts.
type Factory struct {
	TenantsRepo        *TenantRepository
	ListingsRepo       *ListingRepository
	PricingRepo        *PricingRepository
	DailyRatesRepo     *DailyRateRepository
	DailyInventoryRepo *DailyInventoryRepository
	BlocksRepo         *BlockRepository
	BookingsRepo       *BookingRepository
	RedemptionsRepo    *RedemptionRepository
}

// NewFactory builds a factory with fresh repositories.
func NewFactory() Factory {
	return Factory{
		TenantsRepo:        NewTenantRepository(),
		ListingsRepo:       NewListingRepository(),
		PricingRepo:        NewPricingRepository(),
		DailyRatesRepo:     NewDailyRateRepository(),
		DailyInventoryRepo: NewDailyInventoryRepository(),
		BlocksRepo:         NewBlockRepository(),
		BookingsRepo:       NewBookingRepository(),
		RedemptionsRepo:    NewRedemptionRepository(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory Factory
}

func (u *Unit) Tenants() domaintenant.Repository                 { return u.factory.TenantsRepo }
func (u *Unit) Listings() domainlistings.Repository              { return u.factory.ListingsRepo }
func (u *Unit) ListingPricing() domainlistings.PricingRepository { return u.factory.PricingRepo }
func (u *Unit) DailyRates() domainlistings.DailyRateRepository   { return u.factory.DailyRatesRepo }
func (u *Unit) DailyInventory() domainlistings.DailyInventoryRepository {
	return u.factory.DailyInventoryRepo
}
func (u *Unit) Blocks() domainavailability.BlockRepository    { return u.factory.BlocksRepo }
func (u *Unit) Bookings() domainbooking.Repository            { return u.factory.BookingsRepo }
func (u *Unit) Redemptions() domainquote.RedemptionRepository { return u.factory.RedemptionsRepo }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}
