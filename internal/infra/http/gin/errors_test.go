package ginserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainquote "staybook/internal/domain/quote"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

func TestStatusForTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"listing not found", domainlistings.ErrNotFound, http.StatusNotFound},
		{"invalid token", domainquote.ErrInvalidToken, http.StatusUnauthorized},
		{"tenant mismatch", domainquote.ErrTenantMismatch, http.StatusForbidden},
		{"inactive tenant", domaintenant.ErrInactive, http.StatusForbidden},
		{"expired quote", domainquote.ErrExpired, http.StatusConflict},
		{"already redeemed", domainquote.ErrAlreadyRedeemed, http.StatusConflict},
		{"range conflict", bookingapp.ErrRangeConflict, http.StatusConflict},
		{"slot taken", domainavailability.ErrSlotTaken, http.StatusConflict},
		{"not cancellable", domainbooking.ErrNotCancellable, http.StatusConflict},
		{"no rate", domainpricing.ErrNoRate, http.StatusUnprocessableEntity},
		{"no pricing", domainlistings.ErrNoPricing, http.StatusUnprocessableEntity},
		{"invalid range", domainrange.ErrInvalidRange, http.StatusBadRequest},
		{"check-in in past", domainbooking.ErrCheckInInPast, http.StatusBadRequest},
		{"empty batch", calendarapp.ErrNoCells, http.StatusBadRequest},
		{"bad cells", fmt.Errorf("%w: [cell 0: date is required]", calendarapp.ErrInvalidCells), http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("redeem: %w", domainquote.ErrAlreadyRedeemed), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestStatusForUnknownErrorIsServerSide(t *testing.T) {
	// Storage and driver failures are not the caller's fault; they must not
	// surface as 400s.
	for _, err := range []error{
		errors.New("connection reset by peer"),
		fmt.Errorf("session: %w", errors.New("transaction aborted")),
	} {
		if got := statusFor(err); got != http.StatusInternalServerError {
			t.Errorf("statusFor(%v) = %d, want 500", err, got)
		}
	}
}
