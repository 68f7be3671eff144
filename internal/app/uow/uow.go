package uow

import (
	"context"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Every
// repository it exposes takes a tenant id on each call; the unit itself is
// tenant-agnostic.
type UnitOfWork interface {
	Tenants() domaintenant.Repository
	Listings() domainlistings.Repository
	ListingPricing() domainlistings.PricingRepository
	DailyRates() domainlistings.DailyRateRepository
	DailyInventory() domainlistings.DailyInventoryRepository
	Blocks() domainavailability.BlockRepository
	Bookings() domainbooking.Repository
	Redemptions() domainquote.RedemptionRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
