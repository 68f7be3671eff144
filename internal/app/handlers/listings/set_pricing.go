package listings

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
	domaintenant "staybook/internal/domain/tenant"
)

const setPricingKey = "listings.set_pricing"

type SetPricingCommand struct {
	ListingID              string `validate:"required"`
	BaseNightlyCents       int64  `validate:"min=0"`
	WeekendNightlyCents    *int64
	ExtraGuestNightlyCents *int64
	Currency               string `validate:"required,len=3"`
}

func (c SetPricingCommand) Key() string { return setPricingKey }

type SetPricingResult struct {
	ListingID string `json:"listing_id"`
}

// SetPricingHandler updates the listing rate card. Per-date overrides are a
// separate write path; see the calendar upsert.
type SetPricingHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
}

func (h *SetPricingHandler) Handle(ctx context.Context, cmd SetPricingCommand) (*SetPricingResult, error) {
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return nil, domaintenant.ErrMissingFromContext
	}
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(ctx, ten.ID, listingID); err != nil {
		return nil, err
	}

	base, err := money.New(cmd.BaseNightlyCents, cmd.Currency)
	if err != nil {
		return nil, err
	}
	pricing := &domainlistings.Pricing{
		TenantID:    ten.ID,
		ListingID:   listingID,
		BaseNightly: base,
		Currency:    base.Currency,
		UpdatedAt:   time.Now().UTC(),
	}
	if cmd.WeekendNightlyCents != nil {
		weekend, err := money.New(*cmd.WeekendNightlyCents, cmd.Currency)
		if err != nil {
			return nil, err
		}
		pricing.WeekendNightly = weekend
	}
	if cmd.ExtraGuestNightlyCents != nil {
		extra, err := money.New(*cmd.ExtraGuestNightlyCents, cmd.Currency)
		if err != nil {
			return nil, err
		}
		pricing.ExtraGuestNightly = extra
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}
	if err := unit.ListingPricing().Save(ctx, pricing); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("listing pricing updated", "tenant_id", ten.ID, "listing_id", listingID)
	}
	return &SetPricingResult{ListingID: cmd.ListingID}, nil
}

var _ commands.Handler[SetPricingCommand, *SetPricingResult] = (*SetPricingHandler)(nil)
