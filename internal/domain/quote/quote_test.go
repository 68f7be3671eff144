package quote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

type memRedemptions struct {
	mu   sync.Mutex
	rows map[string]Redemption
}

func newMemRedemptions() *memRedemptions {
	return &memRedemptions{rows: map[string]Redemption{}}
}

func (m *memRedemptions) Insert(_ context.Context, r Redemption) (InsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(r.TenantID) + "/" + r.Nonce
	if _, ok := m.rows[key]; ok {
		return AlreadyExists, nil
	}
	m.rows[key] = r
	return Inserted, nil
}

func (m *memRedemptions) Exists(_ context.Context, tenantID tenant.ID, nonce string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[string(tenantID)+"/"+nonce]
	return ok, nil
}

type fixedNonce string

func (f fixedNonce) NewNonce() (string, error) { return string(f), nil }

func testService(redemptions RedemptionRepository, now func() time.Time) *Service {
	return &Service{
		Key:         []byte("test-signing-key"),
		Nonces:      fixedNonce("nonce-1"),
		Redemptions: redemptions,
		Now:         now,
	}
}

func tenantCtx(id tenant.ID) context.Context {
	return tenant.ContextWithTenant(context.Background(), &tenant.Tenant{ID: id, Active: true})
}

func testRange(t *testing.T) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 4, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	dr := testRange(t)

	token, issued, err := svc.Issue("t-1", "l-1", dr, 2, money.Must(27500, "USD"), 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.Nonce != "nonce-1" {
		t.Errorf("nonce = %q", issued.Nonce)
	}

	got, err := svc.Validate(tenantCtx("t-1"), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.TenantID != "t-1" || got.ListingID != listings.ListingID("l-1") {
		t.Errorf("identity fields = %q/%q", got.TenantID, got.ListingID)
	}
	if !got.Range.CheckIn.Equal(dr.CheckIn) || !got.Range.CheckOut.Equal(dr.CheckOut) {
		t.Errorf("range = %v..%v, want %v..%v", got.Range.CheckIn, got.Range.CheckOut, dr.CheckIn, dr.CheckOut)
	}
	if got.Guests != 2 || got.Base.Amount != 27500 || got.Base.Currency != "USD" {
		t.Errorf("payload fields = %d/%d/%s", got.Guests, got.Base.Amount, got.Base.Currency)
	}
}

func TestValidateTamperedTokenFailsGenerically(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	token, _, err := svc.Issue("t-1", "l-1", testRange(t), 2, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"flipped payload byte", flipMiddleSegment(token)},
		{"truncated", token[:len(token)-5]},
		{"garbage", "not-a-token"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Validate(tenantCtx("t-1"), tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func flipMiddleSegment(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || len(parts[1]) == 0 {
		return token
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}

func TestValidateWrongSigningKeyFailsGenerically(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	token, _, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	other := testService(newMemRedemptions(), nil)
	other.Key = []byte("a-different-key")
	if _, err := other.Validate(tenantCtx("t-1"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTenantMismatch(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	token, _, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Validate(tenantCtx("t-2"), token); !errors.Is(err, ErrTenantMismatch) {
		t.Errorf("err = %v, want ErrTenantMismatch", err)
	}
}

func TestValidateExpired(t *testing.T) {
	issuedAt := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	svc := testService(newMemRedemptions(), func() time.Time { return issuedAt })
	token, _, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	svc.Now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	if _, err := svc.Validate(tenantCtx("t-1"), token); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}

	// An expired token from another tenant still reads as a mismatch, not as
	// expiry information.
	if _, err := svc.Validate(tenantCtx("t-2"), token); !errors.Is(err, ErrTenantMismatch) {
		t.Errorf("foreign tenant err = %v, want ErrTenantMismatch", err)
	}
}

func TestRedeemTwiceFails(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	token, issued, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx := tenantCtx("t-1")

	if err := svc.Redeem(ctx, issued, "booking-1"); err != nil {
		t.Fatalf("first Redeem: %v", err)
	}
	if err := svc.Redeem(ctx, issued, "booking-2"); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("second Redeem err = %v, want ErrAlreadyRedeemed", err)
	}
	if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("Validate after redeem err = %v, want ErrAlreadyRedeemed", err)
	}
}

func TestRedeemConcurrentAtMostOneWinner(t *testing.T) {
	svc := testService(newMemRedemptions(), nil)
	_, issued, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx := tenantCtx("t-1")

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Redeem(ctx, issued, "booking")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyRedeemed):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
}

func TestSameNonceUnderTwoTenantsIsUnrelated(t *testing.T) {
	redemptions := newMemRedemptions()
	svc := testService(redemptions, nil)
	_, q1, err := svc.Issue("t-1", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_, q2, err := svc.Issue("t-2", "l-1", testRange(t), 1, money.Must(100, "USD"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if q1.Nonce != q2.Nonce {
		t.Fatalf("test setup: nonces should collide, got %q and %q", q1.Nonce, q2.Nonce)
	}

	if err := svc.Redeem(tenantCtx("t-1"), q1, "b-1"); err != nil {
		t.Fatalf("tenant 1 redeem: %v", err)
	}
	if err := svc.Redeem(tenantCtx("t-2"), q2, "b-2"); err != nil {
		t.Errorf("tenant 2 redeem should be unaffected: %v", err)
	}
}
