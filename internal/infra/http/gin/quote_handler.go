package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	quotesapp "staybook/internal/app/handlers/quotes"
)

type QuoteHandler struct {
	Commands commands.Bus
}

type issueQuoteRequest struct {
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Guests    int       `json:"guests"`
	Units     int       `json:"units"`
}

func (h QuoteHandler) Issue(c *gin.Context) {
	var req issueQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := quotesapp.IssueQuoteCommand{
		ListingID: req.ListingID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    req.Guests,
		Units:     req.Units,
	}
	result, err := commands.Dispatch[quotesapp.IssueQuoteCommand, dto.IssuedQuote](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ QuoteHTTP = QuoteHandler{}
