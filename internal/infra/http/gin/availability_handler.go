package ginserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Resolve(c *gin.Context) {
	checkIn, checkOut, err := parseRangeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := intQuery(c, "units", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := availabilityapp.ResolveQuery{
		ListingID:    c.Param("id"),
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Units:        units,
		WholeListing: c.Query("whole_listing") == "true",
	}
	result, err := queries.Ask[availabilityapp.ResolveQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseRangeParams(c *gin.Context) (time.Time, time.Time, error) {
	checkIn, err := parseDateParam(c, "check_in")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := parseDateParam(c, "check_out")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

func parseDateParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

var _ AvailabilityHTTP = AvailabilityHandler{}
