package availability

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

// DayAvailability is the per-date answer: how many units remain, how many an
// active block already consumes, and whether any active block touches the
// date. Consumed doubles as the first free slot index when a booking claims
// its slot rows.
type DayAvailability struct {
	Date     time.Time
	Units    int
	Consumed int
	Held     bool
}

// Result answers "can I book, and what remains per date" for one listing and
// one half-open range.
type Result struct {
	Range    daterange.DateRange
	Days     []DayAvailability
	Bookable bool
}

// ResolveInput carries everything the computation needs so the resolver
// itself stays free of repositories and side effects.
type ResolveInput struct {
	Range daterange.DateRange
	// InventoryOverrides maps a date (midnight UTC) to an explicit unit count
	// replacing DefaultCapacity for that date.
	InventoryOverrides map[time.Time]int
	DefaultCapacity    int
	Blocks             []*Block
	RequestedUnits     int
	// WholeListing requests exclusivity: any active hold on a date, even one
	// that consumes no units, makes that date non-bookable.
	WholeListing bool
}

// Resolve computes per-date availability. For each date the capacity is the
// inventory override if present, else the default; every active block with
// Inventory=true covering the date consumes one unit. Active blocks with
// Inventory=false do not consume units but still hold the date against
// whole-listing exclusivity. Cancelled blocks never count. All coverage
// checks are strictly half-open: block [Jan 5, Jan 7) holds Jan 5 and Jan 6,
// not Jan 7.
func Resolve(in ResolveInput) Result {
	requested := in.RequestedUnits
	if requested <= 0 {
		requested = 1
	}
	capacity := in.DefaultCapacity
	if capacity <= 0 {
		capacity = 1
	}

	res := Result{Range: in.Range, Bookable: true}
	for _, date := range in.Range.Dates() {
		units := capacity
		if override, ok := in.InventoryOverrides[date]; ok {
			units = override
		}
		held := false
		consumed := 0
		for _, block := range in.Blocks {
			if !block.Active() || !block.Range.ContainsDate(date) {
				continue
			}
			held = true
			if block.Inventory {
				consumed++
			}
		}
		units -= consumed
		if units < 0 {
			units = 0
		}
		if units < requested {
			res.Bookable = false
		}
		if in.WholeListing && held {
			res.Bookable = false
		}
		res.Days = append(res.Days, DayAvailability{Date: date, Units: units, Consumed: consumed, Held: held})
	}
	return res
}
