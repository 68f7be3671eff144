package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	quotesapp "staybook/internal/app/handlers/quotes"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainquote "staybook/internal/domain/quote"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	domaintenant "staybook/internal/domain/tenant"
)

// statusFor maps the domain error taxonomy onto HTTP statuses. Only errors
// that name a caller mistake become 4xx; anything unrecognized is an
// infrastructure failure and stays a 500.
func statusFor(err error) int {
	var invalid validator.ValidationErrors
	switch {
	case errors.Is(err, domaintenant.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainavailability.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainquote.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domainquote.ErrTenantMismatch),
		errors.Is(err, domaintenant.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, domainquote.ErrExpired),
		errors.Is(err, domainquote.ErrAlreadyRedeemed),
		errors.Is(err, bookingapp.ErrRangeConflict),
		errors.Is(err, domainavailability.ErrSlotTaken),
		errors.Is(err, domainbooking.ErrNotCancellable),
		errors.Is(err, quotesapp.ErrNotBookable):
		return http.StatusConflict
	case errors.Is(err, domainpricing.ErrNoRate),
		errors.Is(err, domainlistings.ErrNoPricing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalid),
		errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrGuestsRequired),
		errors.Is(err, domainlistings.ErrNegativeRate),
		errors.Is(err, domainlistings.ErrNegativeUnits),
		errors.Is(err, calendarapp.ErrNoCells),
		errors.Is(err, calendarapp.ErrInvalidCells),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, domainquote.ErrBadQuote):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Infrastructure detail stays in the logs, not the response body.
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
