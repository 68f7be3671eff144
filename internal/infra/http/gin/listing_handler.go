package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	listingsapp "staybook/internal/app/handlers/listings"
)

type ListingHandler struct {
	Commands commands.Bus
}

type setPricingRequest struct {
	BaseNightlyCents       int64  `json:"base_nightly_cents"`
	WeekendNightlyCents    *int64 `json:"weekend_nightly_cents"`
	ExtraGuestNightlyCents *int64 `json:"extra_guest_nightly_cents"`
	Currency               string `json:"currency"`
}

func (h ListingHandler) SetPricing(c *gin.Context) {
	var req setPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingsapp.SetPricingCommand{
		ListingID:              c.Param("id"),
		BaseNightlyCents:       req.BaseNightlyCents,
		WeekendNightlyCents:    req.WeekendNightlyCents,
		ExtraGuestNightlyCents: req.ExtraGuestNightlyCents,
		Currency:               req.Currency,
	}
	result, err := commands.Dispatch[listingsapp.SetPricingCommand, *listingsapp.SetPricingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
