package quote

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

var (
	// ErrInvalidToken covers signature mismatch and corrupt encoding alike;
	// it deliberately carries no detail about which part failed.
	ErrInvalidToken    = errors.New("quote: invalid token")
	ErrExpired         = errors.New("quote: expired")
	ErrTenantMismatch  = errors.New("quote: tenant mismatch")
	ErrAlreadyRedeemed = errors.New("quote: already redeemed")
	ErrKeyRequired     = errors.New("quote: signing key required")
	ErrBadQuote        = errors.New("quote: incomplete quote fields")
)

// Quote is a time-boxed price commitment for one tenant, listing, date range
// and guest count. It lives inside the signed token, never as a row.
type Quote struct {
	TenantID  tenant.ID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Guests    int
	Base      money.Money
	Nonce     string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tid"`
	ListingID string `json:"lid"`
	CheckIn   string `json:"ci"`
	CheckOut  string `json:"co"`
	Guests    int    `json:"gst"`
	Amount    int64  `json:"amt"`
	Currency  string `json:"cur"`
}

// NonceGenerator supplies single-use random values for replay detection.
type NonceGenerator interface {
	NewNonce() (string, error)
}

// Service issues and validates signed quote tokens. Issuance writes nothing;
// the token is self-contained and verifiable without a lookup. Replay
// protection alone needs the redemption store.
type Service struct {
	Key         []byte
	Nonces      NonceGenerator
	Redemptions RedemptionRepository
	Now         func() time.Time
}

// Issue signs a quote for the given fields and TTL and returns the opaque
// token alongside the quote it encodes.
func (s *Service) Issue(tenantID tenant.ID, listingID listings.ListingID, dr daterange.DateRange, guests int, base money.Money, ttl time.Duration) (string, Quote, error) {
	if len(s.Key) == 0 {
		return "", Quote{}, ErrKeyRequired
	}
	if tenantID == "" || listingID == "" || base.Currency == "" {
		return "", Quote{}, ErrBadQuote
	}
	if err := dr.Validate(); err != nil {
		return "", Quote{}, err
	}
	nonce, err := s.Nonces.NewNonce()
	if err != nil {
		return "", Quote{}, err
	}
	now := s.now()
	expires := now.Add(ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TenantID:  string(tenantID),
		ListingID: string(listingID),
		CheckIn:   dr.CheckIn.Format(time.DateOnly),
		CheckOut:  dr.CheckOut.Format(time.DateOnly),
		Guests:    guests,
		Amount:    base.Amount,
		Currency:  base.Currency,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Key)
	if err != nil {
		return "", Quote{}, err
	}
	q := Quote{
		TenantID:  tenantID,
		ListingID: listingID,
		Range:     dr,
		Guests:    guests,
		Base:      base,
		Nonce:     nonce,
		ExpiresAt: expires,
	}
	return token, q, nil
}

// Validate verifies the token signature first and fails closed with
// ErrInvalidToken on any decoding or signature problem. On a valid
// signature it distinguishes, in order: a tenant other than the ambient one
// (a token is only trusted inside the tenant that issued it), an elapsed
// expiry, and an already-consumed nonce.
func (s *Service) Validate(ctx context.Context, token string) (Quote, error) {
	if len(s.Key) == 0 {
		return Quote{}, ErrKeyRequired
	}
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.Key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Signature checked out; expiry is safe to disclose, but the
			// tenant check still comes first so a foreign token never learns
			// whether it was fresh.
			if q, decodeErr := claims.toQuote(); decodeErr == nil {
				if mismatchErr := s.matchTenant(ctx, q.TenantID); mismatchErr != nil {
					return Quote{}, mismatchErr
				}
			}
			return Quote{}, ErrExpired
		}
		return Quote{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return Quote{}, ErrInvalidToken
	}

	q, err := claims.toQuote()
	if err != nil {
		return Quote{}, ErrInvalidToken
	}
	if err := s.matchTenant(ctx, q.TenantID); err != nil {
		return Quote{}, err
	}
	redeemed, err := s.Redemptions.Exists(ctx, q.TenantID, q.Nonce)
	if err != nil {
		return Quote{}, err
	}
	if redeemed {
		return Quote{}, ErrAlreadyRedeemed
	}
	return q, nil
}

// Redeem consumes the quote's nonce exactly once. The unique constraint on
// (tenant, nonce) arbitrates concurrent redemptions: the loser gets
// ErrAlreadyRedeemed, never a generic storage failure.
func (s *Service) Redeem(ctx context.Context, q Quote, bookingRef string) error {
	outcome, err := s.Redemptions.Insert(ctx, Redemption{
		TenantID:   q.TenantID,
		Nonce:      q.Nonce,
		BookingRef: bookingRef,
		RedeemedAt: s.now(),
	})
	if err != nil {
		return err
	}
	if outcome == AlreadyExists {
		return ErrAlreadyRedeemed
	}
	return nil
}

func (s *Service) matchTenant(ctx context.Context, quoted tenant.ID) error {
	ambient, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if ambient != quoted {
		return ErrTenantMismatch
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *tokenClaims) toQuote() (Quote, error) {
	checkIn, err := time.ParseInLocation(time.DateOnly, c.CheckIn, time.UTC)
	if err != nil {
		return Quote{}, err
	}
	checkOut, err := time.ParseInLocation(time.DateOnly, c.CheckOut, time.UTC)
	if err != nil {
		return Quote{}, err
	}
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	base, err := money.New(c.Amount, c.Currency)
	if err != nil {
		return Quote{}, err
	}
	var expires time.Time
	if c.ExpiresAt != nil {
		expires = c.ExpiresAt.Time.UTC()
	}
	return Quote{
		TenantID:  tenant.ID(c.TenantID),
		ListingID: listings.ListingID(c.ListingID),
		Range:     dr,
		Guests:    c.Guests,
		Base:      base,
		Nonce:     c.ID,
		ExpiresAt: expires,
	}, nil
}
