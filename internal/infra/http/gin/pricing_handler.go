package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	pricingapp "staybook/internal/app/handlers/pricing"
	"staybook/internal/app/queries"
)

type PricingHandler struct {
	Queries queries.Bus
}

func (h PricingHandler) StayQuote(c *gin.Context) {
	checkIn, checkOut, err := parseRangeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	guests, err := intQuery(c, "guests", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := pricingapp.StayQuoteQuery{
		ListingID: c.Param("id"),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    guests,
	}
	result, err := queries.Ask[pricingapp.StayQuoteQuery, dto.StayQuote](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
