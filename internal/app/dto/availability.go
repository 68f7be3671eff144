package dto

import (
	"time"

	"staybook/internal/domain/availability"
)

type DayAvailability struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
	Held  bool   `json:"held"`
}

type Availability struct {
	ListingID string            `json:"listing_id"`
	CheckIn   time.Time         `json:"check_in"`
	CheckOut  time.Time         `json:"check_out"`
	Days      []DayAvailability `json:"days"`
	Bookable  bool              `json:"bookable"`
}

func MapAvailability(listingID string, res availability.Result) Availability {
	out := Availability{
		ListingID: listingID,
		CheckIn:   res.Range.CheckIn,
		CheckOut:  res.Range.CheckOut,
		Bookable:  res.Bookable,
		Days:      make([]DayAvailability, 0, len(res.Days)),
	}
	for _, d := range res.Days {
		out.Days = append(out.Days, DayAvailability{
			Date:  d.Date.Format(time.DateOnly),
			Units: d.Units,
			Held:  d.Held,
		})
	}
	return out
}
