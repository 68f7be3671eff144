package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

// ErrNoRate means no override and no base rate exists for a date. Callers
// surface it as "dates not priced", distinct from a missing listing.
var ErrNoRate = errors.New("pricing: no rate configured for date")

// NightRate is the resolved rate for one calendar night.
type NightRate struct {
	Date time.Time
	Rate money.Money
}

// RateResolver computes the nightly rate for a listing date. Resolution
// order, highest precedence first: the DailyRate override for the exact
// date, the weekend rate when the date is a Saturday or Sunday and one is
// set, then the base rate. The override model is authoritative; there is no
// separate weekday rate.
type RateResolver struct {
	Pricing    listings.PricingRepository
	DailyRates listings.DailyRateRepository
}

// ForRange resolves one rate per night of the half-open range. It fails with
// ErrNoRate as soon as any night is unpriced rather than defaulting to zero.
func (r *RateResolver) ForRange(ctx context.Context, tenantID tenant.ID, listingID listings.ListingID, dr daterange.DateRange) ([]NightRate, error) {
	rateCard, err := r.Pricing.ByListing(ctx, tenantID, listingID)
	if err != nil && !errors.Is(err, listings.ErrNoPricing) {
		return nil, err
	}

	overrides, err := r.DailyRates.ForRange(ctx, tenantID, listingID, dr)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]listings.DailyRate, len(overrides))
	for _, o := range overrides {
		byDate[daterange.Day(o.Date)] = o
	}

	nights := make([]NightRate, 0, dr.Nights())
	for _, date := range dr.Dates() {
		rate, err := resolveNight(rateCard, byDate, date)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNoRate, date.Format(time.DateOnly))
		}
		nights = append(nights, NightRate{Date: date, Rate: rate})
	}
	return nights, nil
}

// ForDate resolves the rate of a single night.
func (r *RateResolver) ForDate(ctx context.Context, tenantID tenant.ID, listingID listings.ListingID, date time.Time) (money.Money, error) {
	date = daterange.Day(date)
	dr := daterange.DateRange{CheckIn: date, CheckOut: date.AddDate(0, 0, 1)}
	nights, err := r.ForRange(ctx, tenantID, listingID, dr)
	if err != nil {
		return money.Money{}, err
	}
	return nights[0].Rate, nil
}

func resolveNight(rateCard *listings.Pricing, overrides map[time.Time]listings.DailyRate, date time.Time) (money.Money, error) {
	if o, ok := overrides[date]; ok {
		return o.Rate, nil
	}
	if rateCard == nil {
		return money.Money{}, ErrNoRate
	}
	if rateCard.HasWeekendRate() && isWeekend(date) {
		return rateCard.WeekendNightly, nil
	}
	if rateCard.BaseNightly.Currency == "" {
		return money.Money{}, ErrNoRate
	}
	return rateCard.BaseNightly, nil
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
