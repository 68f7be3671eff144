package pricing

import (
	"context"
	"testing"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

func TestQuoteAppliesDiscountThenFee(t *testing.T) {
	engine := &Engine{Rates: &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			BaseNightly: money.Must(10000, "USD"),
			Currency:    "USD",
		}},
		DailyRates: stubDailyRateRepo{},
	}}

	// 2 weekday nights at 100.00, 10% discount, 5% fee on the discounted sum.
	breakdown, err := engine.Quote(context.Background(), QuoteInput{
		TenantID:  testTenant,
		ListingID: testListing,
		Range:     mustRange(t, date(2025, time.January, 6), date(2025, time.January, 8)),
		Guests:    2,
		Settings:  tenant.Settings{DiscountPercent: 10, ConvenienceFeePercent: 5},
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if breakdown.Base.Amount != 20000 {
		t.Errorf("base = %d, want 20000", breakdown.Base.Amount)
	}
	if breakdown.Discount.Amount != 2000 {
		t.Errorf("discount = %d, want 2000", breakdown.Discount.Amount)
	}
	if breakdown.Fee.Amount != 900 {
		t.Errorf("fee = %d, want 900 (5%% of 18000)", breakdown.Fee.Amount)
	}
	if breakdown.Total.Amount != 18900 {
		t.Errorf("total = %d, want 18900", breakdown.Total.Amount)
	}
}

func TestQuoteOverrideAndBaseMix(t *testing.T) {
	engine := &Engine{Rates: &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			BaseNightly:    money.Must(100, "USD"),
			WeekendNightly: money.Must(150, "USD"),
			Currency:       "USD",
		}},
		DailyRates: stubDailyRateRepo{rates: []listings.DailyRate{{
			Date: date(2025, time.January, 5),
			Rate: money.Must(175, "USD"),
		}}},
	}}

	breakdown, err := engine.Quote(context.Background(), QuoteInput{
		TenantID:  testTenant,
		ListingID: testListing,
		Range:     mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		Guests:    1,
		Settings:  tenant.Settings{},
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if breakdown.Base.Amount != 275 {
		t.Errorf("base = %d, want 275 (175 + 100)", breakdown.Base.Amount)
	}
	if breakdown.Total.Amount != 275 {
		t.Errorf("total = %d, want 275 with no discount or fee", breakdown.Total.Amount)
	}
}

func TestQuoteZeroPercentSettingsAreNoops(t *testing.T) {
	engine := &Engine{Rates: &RateResolver{
		Pricing: stubPricingRepo{pricing: &listings.Pricing{
			BaseNightly: money.Must(9999, "USD"),
			Currency:    "USD",
		}},
		DailyRates: stubDailyRateRepo{},
	}}

	breakdown, err := engine.Quote(context.Background(), QuoteInput{
		TenantID:  testTenant,
		ListingID: testListing,
		Range:     mustRange(t, date(2025, time.February, 3), date(2025, time.February, 4)),
		Guests:    1,
		Settings:  tenant.Settings{},
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !breakdown.Discount.IsZero() || !breakdown.Fee.IsZero() {
		t.Errorf("discount/fee = %d/%d, want 0/0", breakdown.Discount.Amount, breakdown.Fee.Amount)
	}
	if breakdown.Total.Amount != breakdown.Base.Amount {
		t.Errorf("total = %d, want base %d", breakdown.Total.Amount, breakdown.Base.Amount)
	}
}
