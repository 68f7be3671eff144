package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	quotesapp "staybook/internal/app/handlers/quotes"
	appoutbox "staybook/internal/app/outbox"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainquote "staybook/internal/domain/quote"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	domaintenant "staybook/internal/domain/tenant"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	box     *memory.Outbox
	quotes  *domainquote.Service
	tenant  *domaintenant.Tenant
	listing domainlistings.ListingID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()
	now := time.Now().UTC()

	ten, err := domaintenant.New("t-1", "acme", "Acme Stays", domaintenant.Settings{
		DefaultCapacity: 1,
		Currency:        "USD",
	}, now)
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
	if err := listing.Activate(now); err != nil {
		t.Fatal(err)
	}
	if err := factory.ListingsRepo.Save(ctx, listing); err != nil {
		t.Fatal(err)
	}

	pricing := &domainlistings.Pricing{
		TenantID:    ten.ID,
		ListingID:   listing.ID,
		BaseNightly: money.Must(10000, "USD"),
		Currency:    "USD",
		UpdatedAt:   now,
	}
	if err := factory.PricingRepo.Save(ctx, pricing); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		factory: factory,
		box:     memory.NewOutbox(),
		quotes: &domainquote.Service{
			Key:         []byte("test-signing-key"),
			Nonces:      security.RandomNonceGenerator{},
			Redemptions: factory.RedemptionsRepo,
		},
		tenant:  ten,
		listing: listing.ID,
	}
}

func (f *fixture) ctx() context.Context {
	return domaintenant.ContextWithTenant(context.Background(), f.tenant)
}

func (f *fixture) stayRange(t *testing.T) domainrange.DateRange {
	t.Helper()
	checkIn := domainrange.Day(time.Now().UTC().AddDate(0, 0, 30))
	dr, err := domainrange.New(checkIn, checkIn.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func (f *fixture) issueQuote(t *testing.T, dr domainrange.DateRange) string {
	t.Helper()
	handler := &quotesapp.IssueQuoteHandler{
		UoWFactory: f.factory,
		Quotes:     f.quotes,
		DefaultTTL: 15 * time.Minute,
	}
	issued, err := handler.Handle(f.ctx(), quotesapp.IssueQuoteCommand{
		ListingID: string(f.listing),
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Guests:    2,
	})
	if err != nil {
		t.Fatalf("issue quote: %v", err)
	}
	return issued.Token
}

func (f *fixture) requestHandler() *RequestBookingHandler {
	return &RequestBookingHandler{
		UoWFactory: f.factory,
		Quotes:     f.quotes,
		Outbox:     f.box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
}

func (f *fixture) outboxNames() []string {
	var names []string
	for _, rec := range f.box.Records() {
		names = append(names, rec.Name)
	}
	return names
}

func hasEvent(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestRequestBookingRedeemsQuoteOnce(t *testing.T) {
	f := newFixture(t)
	dr := f.stayRange(t)
	token := f.issueQuote(t, dr)
	handler := f.requestHandler()

	result, err := handler.Handle(f.ctx(), RequestBookingCommand{
		CommandID:  "cmd-1",
		QuoteToken: token,
	})
	if err != nil {
		t.Fatalf("request booking: %v", err)
	}
	if result.TotalCents != 20000 || result.Currency != "USD" {
		t.Errorf("total = %d %s, want 20000 USD", result.TotalCents, result.Currency)
	}

	ctx := f.ctx()
	bk, err := f.factory.BookingsRepo.ByID(ctx, f.tenant.ID, domainbooking.BookingID(result.BookingID))
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if bk.Status != domainbooking.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", bk.Status)
	}
	blocks, err := f.factory.BlocksRepo.ForRange(ctx, f.tenant.ID, f.listing, dr)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || !blocks[0].Inventory || blocks[0].Kind != "BOOKING" {
		t.Errorf("blocks = %+v, want one inventory booking block", blocks)
	}
	if !hasEvent(f.outboxNames(), "booking.confirmed") {
		t.Errorf("outbox events = %v, want booking.confirmed", f.outboxNames())
	}

	// The same token a second time is a double redeem, regardless of the new
	// command id.
	_, err = handler.Handle(f.ctx(), RequestBookingCommand{
		CommandID:  "cmd-2",
		QuoteToken: token,
	})
	if !errors.Is(err, domainquote.ErrAlreadyRedeemed) {
		t.Errorf("second redeem err = %v, want ErrAlreadyRedeemed", err)
	}
}

func TestRequestBookingRangeConflict(t *testing.T) {
	f := newFixture(t)
	dr := f.stayRange(t)
	// Both quotes are issued while the range is still open.
	first := f.issueQuote(t, dr)
	second := f.issueQuote(t, dr)
	handler := f.requestHandler()

	if _, err := handler.Handle(f.ctx(), RequestBookingCommand{CommandID: "cmd-1", QuoteToken: first}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := handler.Handle(f.ctx(), RequestBookingCommand{CommandID: "cmd-2", QuoteToken: second})
	if !errors.Is(err, ErrRangeConflict) {
		t.Fatalf("err = %v, want ErrRangeConflict", err)
	}
	if !hasEvent(f.outboxNames(), "calendar.overbooking_prevented") {
		t.Errorf("outbox events = %v, want calendar.overbooking_prevented", f.outboxNames())
	}
}

func TestRequestBookingRejectsForeignTenantToken(t *testing.T) {
	f := newFixture(t)
	dr := f.stayRange(t)
	token := f.issueQuote(t, dr)
	handler := f.requestHandler()

	other := &domaintenant.Tenant{ID: "t-2", Slug: "other", Name: "Other", Active: true}
	ctx := domaintenant.ContextWithTenant(context.Background(), other)
	_, err := handler.Handle(ctx, RequestBookingCommand{CommandID: "cmd-1", QuoteToken: token})
	if !errors.Is(err, domainquote.ErrTenantMismatch) {
		t.Errorf("err = %v, want ErrTenantMismatch", err)
	}
}

func TestCancelBookingReleasesRange(t *testing.T) {
	f := newFixture(t)
	dr := f.stayRange(t)
	handler := f.requestHandler()

	result, err := handler.Handle(f.ctx(), RequestBookingCommand{
		CommandID:  "cmd-1",
		QuoteToken: f.issueQuote(t, dr),
	})
	if err != nil {
		t.Fatal(err)
	}

	cancel := &CancelBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	cancelled, err := cancel.Handle(f.ctx(), CancelBookingCommand{BookingID: result.BookingID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != string(domainbooking.StatusCancelled) {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if !hasEvent(f.outboxNames(), "calendar.released") {
		t.Errorf("outbox events = %v, want calendar.released", f.outboxNames())
	}

	// The range opens up again: a fresh quote and booking must succeed.
	if _, err := handler.Handle(f.ctx(), RequestBookingCommand{
		CommandID:  "cmd-2",
		QuoteToken: f.issueQuote(t, dr),
	}); err != nil {
		t.Errorf("rebooking after cancel: %v", err)
	}

	// Cancelling twice is rejected.
	if _, err := cancel.Handle(f.ctx(), CancelBookingCommand{BookingID: result.BookingID}); !errors.Is(err, domainbooking.ErrNotCancellable) {
		t.Errorf("double cancel err = %v, want ErrNotCancellable", err)
	}
}

func TestRequestBookingConcurrentLastUnit(t *testing.T) {
	// Two requests holding distinct valid quotes race for the same
	// capacity-1 dates. Whatever each one read beforehand, the unique slot
	// claim lets exactly one commit; the other gets a range conflict.
	f := newFixture(t)
	dr := f.stayRange(t)
	tokens := []string{f.issueQuote(t, dr), f.issueQuote(t, dr)}
	handler := f.requestHandler()

	start := make(chan struct{})
	errs := make([]error, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			<-start
			_, err := handler.Handle(f.ctx(), RequestBookingCommand{
				CommandID:  fmt.Sprintf("cmd-%d", i),
				QuoteToken: token,
			})
			errs[i] = err
		}(i, token)
	}
	close(start)
	wg.Wait()

	confirmed := 0
	for i, err := range errs {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrRangeConflict):
		default:
			t.Errorf("racer %d: unexpected err %v", i, err)
		}
	}
	if confirmed != 1 {
		t.Fatalf("%d bookings succeeded for the same capacity-1 dates, want exactly 1", confirmed)
	}

	blocks, err := f.factory.BlocksRepo.ForRange(f.ctx(), f.tenant.ID, f.listing, dr)
	if err != nil {
		t.Fatal(err)
	}
	active := 0
	for _, b := range blocks {
		if b.Active() && b.Inventory {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active inventory blocks = %d, want 1", active)
	}
}
