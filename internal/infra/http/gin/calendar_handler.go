package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	calendarapp "staybook/internal/app/handlers/calendar"
	"staybook/internal/app/queries"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h CalendarHandler) Get(c *gin.Context) {
	from, err := parseDateParam(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := parseDateParam(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := calendarapp.GetCalendarQuery{ListingID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type upsertCellRequest struct {
	Date      string `json:"date"`
	RateCents *int64 `json:"rate_cents"`
	Units     *int   `json:"units"`
	Source    string `json:"source"`
	Reason    string `json:"reason"`
}

type upsertCalendarRequest struct {
	Cells []upsertCellRequest `json:"cells"`
}

func (h CalendarHandler) Upsert(c *gin.Context) {
	var req upsertCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cells := make([]calendarapp.Cell, 0, len(req.Cells))
	for _, rc := range req.Cells {
		date, err := time.ParseInLocation(time.DateOnly, rc.Date, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cell date must be YYYY-MM-DD"})
			return
		}
		cells = append(cells, calendarapp.Cell{
			Date:      date,
			RateCents: rc.RateCents,
			Units:     rc.Units,
			Source:    rc.Source,
			Reason:    rc.Reason,
		})
	}
	cmd := calendarapp.UpsertCalendarCommand{
		ListingID:       c.Param("id"),
		Cells:           cells,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[calendarapp.UpsertCalendarCommand, *calendarapp.UpsertCalendarResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
