package pricing

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

const stayQuoteKey = "pricing.stay_quote"

type StayQuoteQuery struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
	Guests    int
}

func (q StayQuoteQuery) Key() string { return stayQuoteKey }

// StayQuoteHandler prices a stay: one resolved rate per night plus the
// tenant's discount and convenience fee.
type StayQuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *StayQuoteHandler) Handle(ctx context.Context, q StayQuoteQuery) (dto.StayQuote, error) {
	var zero dto.StayQuote
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return zero, domaintenant.ErrMissingFromContext
	}
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return zero, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, ten.ID, listingID); err != nil {
		return zero, err
	}

	engine := domainpricing.Engine{Rates: &domainpricing.RateResolver{
		Pricing:    unit.ListingPricing(),
		DailyRates: unit.DailyRates(),
	}}
	breakdown, err := engine.Quote(execCtx, domainpricing.QuoteInput{
		TenantID:  ten.ID,
		ListingID: listingID,
		Range:     dr,
		Guests:    q.Guests,
		Settings:  ten.Settings,
	})
	if err != nil {
		return zero, err
	}
	return dto.MapStayQuote(q.ListingID, dr.CheckIn, dr.CheckOut, breakdown), nil
}

var _ queries.Handler[StayQuoteQuery, dto.StayQuote] = (*StayQuoteHandler)(nil)
