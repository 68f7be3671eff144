package listings

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

var (
	ErrNoPricing     = errors.New("listings: no pricing configured")
	ErrNegativeRate  = errors.New("listings: nightly rate must be non-negative")
	ErrNegativeUnits = errors.New("listings: units must be non-negative")
)

// Pricing is the 1:1 rate card for a listing. WeekendNightly and
// ExtraGuestNightly are optional; a zero Money with empty currency means
// unset.
type Pricing struct {
	TenantID          tenant.ID
	ListingID         ListingID
	BaseNightly       money.Money
	WeekendNightly    money.Money
	ExtraGuestNightly money.Money
	Currency          string
	UpdatedAt         time.Time
}

func (p Pricing) HasWeekendRate() bool {
	return p.WeekendNightly.Currency != ""
}

func (p Pricing) Validate() error {
	if p.BaseNightly.IsNegative() || p.WeekendNightly.IsNegative() || p.ExtraGuestNightly.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

type RateSource string

const (
	RateSourceManual      RateSource = "MANUAL"
	RateSourceChannelSync RateSource = "CHANNEL_SYNC"
)

// DailyRate is an explicit per-date override, unique per (tenant, listing,
// date). It always wins over the Pricing rate card.
type DailyRate struct {
	TenantID  tenant.ID
	ListingID ListingID
	Date      time.Time
	Rate      money.Money
	Source    RateSource
	Reason    string
	UpdatedAt time.Time
}

func (r DailyRate) Validate() error {
	if r.Rate.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

// DailyInventory overrides the bookable unit count for a date, unique per
// (tenant, listing, date).
type DailyInventory struct {
	TenantID  tenant.ID
	ListingID ListingID
	Date      time.Time
	Units     int
	UpdatedAt time.Time
}

func (i DailyInventory) Validate() error {
	if i.Units < 0 {
		return ErrNegativeUnits
	}
	return nil
}

type PricingRepository interface {
	ByListing(ctx context.Context, tenantID tenant.ID, listingID ListingID) (*Pricing, error)
	Save(ctx context.Context, p *Pricing) error
}

type DailyRateRepository interface {
	ForRange(ctx context.Context, tenantID tenant.ID, listingID ListingID, dr daterange.DateRange) ([]DailyRate, error)
	Upsert(ctx context.Context, rate DailyRate) error
}

type DailyInventoryRepository interface {
	ForRange(ctx context.Context, tenantID tenant.ID, listingID ListingID, dr daterange.DateRange) ([]DailyInventory, error)
	Upsert(ctx context.Context, inv DailyInventory) error
}
