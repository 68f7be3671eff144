package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

const (
	testTenant  = tenant.ID("t-1")
	testListing = listings.ListingID("l-1")
)

type stubPricingRepo struct {
	pricing *listings.Pricing
}

func (s stubPricingRepo) ByListing(context.Context, tenant.ID, listings.ListingID) (*listings.Pricing, error) {
	if s.pricing == nil {
		return nil, listings.ErrNoPricing
	}
	return s.pricing, nil
}

func (s stubPricingRepo) Save(context.Context, *listings.Pricing) error { return nil }

type stubDailyRateRepo struct {
	rates []listings.DailyRate
}

func (s stubDailyRateRepo) ForRange(_ context.Context, _ tenant.ID, _ listings.ListingID, dr daterange.DateRange) ([]listings.DailyRate, error) {
	var out []listings.DailyRate
	for _, r := range s.rates {
		if dr.ContainsDate(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s stubDailyRateRepo) Upsert(context.Context, listings.DailyRate) error { return nil }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return dr
}

func TestForRangeOverrideBeatsWeekendBeatsBase(t *testing.T) {
	// 2025-01-05 is a Sunday with an override, 2025-01-06 a Monday.
	resolver := &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			TenantID:       testTenant,
			ListingID:      testListing,
			BaseNightly:    money.Must(100, "USD"),
			WeekendNightly: money.Must(150, "USD"),
			Currency:       "USD",
		}},
		DailyRates: stubDailyRateRepo{rates: []listings.DailyRate{{
			TenantID:  testTenant,
			ListingID: testListing,
			Date:      date(2025, time.January, 5),
			Rate:      money.Must(175, "USD"),
			Source:    listings.RateSourceManual,
		}}},
	}

	nights, err := resolver.ForRange(context.Background(), testTenant, testListing, mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)))
	if err != nil {
		t.Fatalf("ForRange: %v", err)
	}
	if len(nights) != 2 {
		t.Fatalf("nights = %d, want 2", len(nights))
	}
	if nights[0].Rate.Amount != 175 {
		t.Errorf("sunday override = %d, want 175", nights[0].Rate.Amount)
	}
	if nights[1].Rate.Amount != 100 {
		t.Errorf("monday base = %d, want 100", nights[1].Rate.Amount)
	}
}

func TestForRangeWeekendRateAppliesSaturdayAndSunday(t *testing.T) {
	resolver := &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			BaseNightly:    money.Must(100, "USD"),
			WeekendNightly: money.Must(150, "USD"),
			Currency:       "USD",
		}},
		DailyRates: stubDailyRateRepo{},
	}

	// Friday Jan 3 through Monday Jan 6, 2025: Fri base, Sat+Sun weekend.
	nights, err := resolver.ForRange(context.Background(), testTenant, testListing, mustRange(t, date(2025, time.January, 3), date(2025, time.January, 6)))
	if err != nil {
		t.Fatalf("ForRange: %v", err)
	}
	want := []int64{100, 150, 150}
	for i, n := range nights {
		if n.Rate.Amount != want[i] {
			t.Errorf("night %d = %d, want %d", i, n.Rate.Amount, want[i])
		}
	}
}

func TestForRangeWithoutWeekendRateFallsBackToBase(t *testing.T) {
	resolver := &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			BaseNightly: money.Must(100, "USD"),
			Currency:    "USD",
		}},
		DailyRates: stubDailyRateRepo{},
	}

	nights, err := resolver.ForRange(context.Background(), testTenant, testListing, mustRange(t, date(2025, time.January, 4), date(2025, time.January, 6)))
	if err != nil {
		t.Fatalf("ForRange: %v", err)
	}
	for i, n := range nights {
		if n.Rate.Amount != 100 {
			t.Errorf("night %d = %d, want base 100", i, n.Rate.Amount)
		}
	}
}

func TestForRangeFailsWhenAnyNightIsUnpriced(t *testing.T) {
	resolver := &RateResolver{
		Pricing: stubPricingRepo{},
		DailyRates: stubDailyRateRepo{rates: []listings.DailyRate{{
			Date: date(2025, time.January, 5),
			Rate: money.Must(175, "USD"),
		}}},
	}

	// Jan 5 has an override, Jan 6 has nothing at all.
	_, err := resolver.ForRange(context.Background(), testTenant, testListing, mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)))
	if !errors.Is(err, ErrNoRate) {
		t.Fatalf("err = %v, want ErrNoRate", err)
	}
}

func TestForRangeOverridesCoverUnpricedListing(t *testing.T) {
	resolver := &RateResolver{
		Pricing: stubPricingRepo{},
		DailyRates: stubDailyRateRepo{rates: []listings.DailyRate{
			{Date: date(2025, time.January, 5), Rate: money.Must(175, "USD")},
			{Date: date(2025, time.January, 6), Rate: money.Must(125, "USD")},
		}},
	}

	nights, err := resolver.ForRange(context.Background(), testTenant, testListing, mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)))
	if err != nil {
		t.Fatalf("ForRange: %v", err)
	}
	if nights[0].Rate.Amount != 175 || nights[1].Rate.Amount != 125 {
		t.Errorf("rates = [%d %d], want [175 125]", nights[0].Rate.Amount, nights[1].Rate.Amount)
	}
}
