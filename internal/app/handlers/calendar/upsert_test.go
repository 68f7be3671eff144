package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
	"staybook/internal/infra/storage/memory"
)

func int64p(v int64) *int64 { return &v }

func intp(v int) *int { return &v }

func seedListing(t *testing.T, factory memory.Factory) (*domaintenant.Tenant, domainlistings.ListingID) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	ten, err := domaintenant.New("t-1", "acme", "Acme Stays", domaintenant.Settings{Currency: "USD"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := factory.TenantsRepo.Save(ctx, ten); err != nil {
		t.Fatal(err)
	}
	listing, err := domainlistings.New("l-1", ten.ID, "p-1", "Sea cottage", now)
	if err != nil {
		t.Fatal(err)
	}
	if err := factory.ListingsRepo.Save(ctx, listing); err != nil {
		t.Fatal(err)
	}
	return ten, listing.ID
}

func TestUpsertCalendarWritesRatesAndInventory(t *testing.T) {
	factory := memory.NewFactory()
	ten, listingID := seedListing(t, factory)
	handler := &UpsertCalendarHandler{UoWFactory: factory}
	ctx := domaintenant.ContextWithTenant(context.Background(), ten)

	day := domainrange.Day(time.Now().UTC().AddDate(0, 0, 10))
	result, err := handler.Handle(ctx, UpsertCalendarCommand{
		ListingID: string(listingID),
		Cells: []Cell{
			{Date: day, RateCents: int64p(17500), Reason: "high season"},
			{Date: day.AddDate(0, 0, 1), Units: intp(3)},
		},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(result.Cells) != 2 {
		t.Fatalf("result cells = %d, want 2", len(result.Cells))
	}

	dr, _ := domainrange.New(day, day.AddDate(0, 0, 2))
	rates, err := factory.DailyRatesRepo.ForRange(ctx, ten.ID, listingID, dr)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 1 || rates[0].Rate.Amount != 17500 || rates[0].Rate.Currency != "USD" {
		t.Errorf("rates = %+v, want one 17500 USD override", rates)
	}
	if rates[0].Source != domainlistings.RateSourceManual {
		t.Errorf("source = %s, want MANUAL default", rates[0].Source)
	}
	inv, err := factory.DailyInventoryRepo.ForRange(ctx, ten.ID, listingID, dr)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv) != 1 || inv[0].Units != 3 {
		t.Errorf("inventory = %+v, want one row of 3 units", inv)
	}
}

func TestUpsertCalendarRejectsWholeBatchOnOneBadCell(t *testing.T) {
	factory := memory.NewFactory()
	ten, listingID := seedListing(t, factory)
	handler := &UpsertCalendarHandler{UoWFactory: factory}
	ctx := domaintenant.ContextWithTenant(context.Background(), ten)

	day := domainrange.Day(time.Now().UTC().AddDate(0, 0, 10))
	_, err := handler.Handle(ctx, UpsertCalendarCommand{
		ListingID: string(listingID),
		Cells: []Cell{
			{Date: day, RateCents: int64p(17500)},
			{Date: day.AddDate(0, 0, 1), Units: intp(-1)},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for negative units")
	}
	if !strings.Contains(err.Error(), "cell 1") {
		t.Errorf("error should name the offending cell: %v", err)
	}

	// The valid sibling cell must not have been applied.
	dr, _ := domainrange.New(day, day.AddDate(0, 0, 2))
	rates, err := factory.DailyRatesRepo.ForRange(ctx, ten.ID, listingID, dr)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 0 {
		t.Errorf("rates written despite batch rejection: %+v", rates)
	}
}

func TestUpsertCalendarValidateCases(t *testing.T) {
	day := domainrange.Day(time.Now().UTC())
	cases := []struct {
		name    string
		cmd     UpsertCalendarCommand
		wantErr bool
	}{
		{"empty batch", UpsertCalendarCommand{ListingID: "l-1"}, true},
		{"negative rate", UpsertCalendarCommand{ListingID: "l-1", Cells: []Cell{{Date: day, RateCents: int64p(-1)}}}, true},
		{"zero date", UpsertCalendarCommand{ListingID: "l-1", Cells: []Cell{{RateCents: int64p(100)}}}, true},
		{"empty cell", UpsertCalendarCommand{ListingID: "l-1", Cells: []Cell{{Date: day}}}, true},
		{"zero rate ok", UpsertCalendarCommand{ListingID: "l-1", Cells: []Cell{{Date: day, RateCents: int64p(0)}}}, false},
		{"zero units ok", UpsertCalendarCommand{ListingID: "l-1", Cells: []Cell{{Date: day, Units: intp(0)}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cmd.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	if err := (UpsertCalendarCommand{ListingID: "l-1"}).Validate(); !errors.Is(err, ErrNoCells) {
		t.Errorf("empty batch err = %v, want ErrNoCells", err)
	}
}
