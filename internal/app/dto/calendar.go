package dto

import (
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
)

type CalendarBlock struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Inventory bool      `json:"inventory"`
}

type CalendarCell struct {
	Date      string `json:"date"`
	RateCents *int64 `json:"rate_cents,omitempty"`
	Units     *int   `json:"units,omitempty"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Blocks    []CalendarBlock `json:"blocks"`
	Cells     []CalendarCell  `json:"cells"`
}

func MapCalendar(listingID string, blocks []*availability.Block, rates []listings.DailyRate, inventory []listings.DailyInventory) Calendar {
	cal := Calendar{ListingID: listingID}
	for _, b := range blocks {
		cal.Blocks = append(cal.Blocks, CalendarBlock{
			From:      b.Range.CheckIn,
			To:        b.Range.CheckOut,
			Kind:      string(b.Kind),
			Status:    string(b.Status),
			Inventory: b.Inventory,
		})
	}
	cells := map[string]*CalendarCell{}
	order := []string{}
	cell := func(date time.Time) *CalendarCell {
		key := date.Format(time.DateOnly)
		if c, ok := cells[key]; ok {
			return c
		}
		c := &CalendarCell{Date: key}
		cells[key] = c
		order = append(order, key)
		return c
	}
	for _, r := range rates {
		amount := r.Rate.Amount
		cell(r.Date).RateCents = &amount
	}
	for _, inv := range inventory {
		units := inv.Units
		cell(inv.Date).Units = &units
	}
	for _, key := range order {
		cal.Cells = append(cal.Cells, *cells[key])
	}
	return cal
}
