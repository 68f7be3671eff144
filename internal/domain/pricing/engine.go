package pricing

import (
	"context"
	"errors"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

var ErrCurrencyUnset = errors.New("pricing: currency must be defined")

type QuoteInput struct {
	TenantID  tenant.ID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Guests    int
	Settings  tenant.Settings
}

// StayBreakdown is the priced answer for one stay: a rate per night, the
// base sum, the tenant discount, the convenience fee computed on the
// discounted amount, and the final total. All percent applications round
// half to even at minor-unit precision.
type StayBreakdown struct {
	Nights   []NightRate
	Base     money.Money
	Discount money.Money
	Fee      money.Money
	Total    money.Money
}

type Calculator interface {
	Quote(ctx context.Context, input QuoteInput) (StayBreakdown, error)
}

// Engine composes the rate resolver over a stay's range and applies the
// tenant-level fee and discount settings.
type Engine struct {
	Rates *RateResolver
}

func (e *Engine) Quote(ctx context.Context, input QuoteInput) (StayBreakdown, error) {
	if err := input.Range.Validate(); err != nil {
		return StayBreakdown{}, err
	}
	nights, err := e.Rates.ForRange(ctx, input.TenantID, input.ListingID, input.Range)
	if err != nil {
		return StayBreakdown{}, err
	}

	base := money.Money{Currency: nights[0].Rate.Currency}
	for _, n := range nights {
		base, err = base.Add(n.Rate)
		if err != nil {
			return StayBreakdown{}, err
		}
	}
	if base.Currency == "" {
		return StayBreakdown{}, ErrCurrencyUnset
	}

	discount := base.PercentOf(input.Settings.DiscountPercent)
	discounted, err := base.Sub(discount)
	if err != nil {
		return StayBreakdown{}, err
	}
	fee := discounted.PercentOf(input.Settings.ConvenienceFeePercent)
	total, err := discounted.Add(fee)
	if err != nil {
		return StayBreakdown{}, err
	}

	return StayBreakdown{
		Nights:   nights,
		Base:     base,
		Discount: discount,
		Fee:      fee,
		Total:    total,
	}, nil
}

var _ Calculator = (*Engine)(nil)
