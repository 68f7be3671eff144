package availability

import (
	"testing"
	"time"

	"staybook/internal/domain/shared/daterange"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return dr
}

func activeBlock(t *testing.T, checkIn, checkOut time.Time, inventory bool) *Block {
	t.Helper()
	return NewBlock("b-1", "t-1", "l-1", mustRange(t, checkIn, checkOut), KindBooking, inventory, "ref", time.Now())
}

func TestResolveBlockConsumesUnitHalfOpen(t *testing.T) {
	// Inventory block on [Jan 6, Jan 7): Jan 6 taken, Jan 5 and Jan 7 untouched.
	block := activeBlock(t, date(2025, time.January, 6), date(2025, time.January, 7), true)

	res := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		DefaultCapacity: 1,
		Blocks:          []*Block{block},
		RequestedUnits:  1,
	})
	if res.Bookable {
		t.Error("range covering a fully-held date must not be bookable")
	}
	if res.Days[0].Units != 1 {
		t.Errorf("jan 5 units = %d, want 1", res.Days[0].Units)
	}
	if res.Days[1].Units != 0 {
		t.Errorf("jan 6 units = %d, want 0", res.Days[1].Units)
	}

	before := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 6)),
		DefaultCapacity: 1,
		Blocks:          []*Block{block},
		RequestedUnits:  1,
	})
	if !before.Bookable {
		t.Error("[jan 5, jan 6) must stay bookable next to block [jan 6, jan 7)")
	}
}

func TestResolveCancelledBlocksNeverCount(t *testing.T) {
	block := activeBlock(t, date(2025, time.January, 5), date(2025, time.January, 7), true)
	block.Cancel(time.Now())

	res := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		DefaultCapacity: 1,
		Blocks:          []*Block{block},
		RequestedUnits:  1,
	})
	if !res.Bookable {
		t.Error("cancelled block must not affect availability")
	}
	for _, day := range res.Days {
		if day.Held {
			t.Errorf("%s flagged as held by a cancelled block", day.Date.Format(time.DateOnly))
		}
	}
}

func TestResolveInventoryOverrideReplacesCapacity(t *testing.T) {
	jan6 := date(2025, time.January, 6)
	res := Resolve(ResolveInput{
		Range:              mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		InventoryOverrides: map[time.Time]int{jan6: 3},
		DefaultCapacity:    1,
		RequestedUnits:     2,
	})
	if res.Bookable {
		t.Error("jan 5 has capacity 1, requesting 2 must fail")
	}
	if res.Days[1].Units != 3 {
		t.Errorf("jan 6 units = %d, want override 3", res.Days[1].Units)
	}

	single := Resolve(ResolveInput{
		Range:              mustRange(t, jan6, date(2025, time.January, 7)),
		InventoryOverrides: map[time.Time]int{jan6: 3},
		DefaultCapacity:    1,
		RequestedUnits:     2,
	})
	if !single.Bookable {
		t.Error("override raises jan 6 to 3 units, requesting 2 must succeed")
	}
}

func TestResolveZeroOverrideClosesDate(t *testing.T) {
	jan6 := date(2025, time.January, 6)
	res := Resolve(ResolveInput{
		Range:              mustRange(t, jan6, date(2025, time.January, 7)),
		InventoryOverrides: map[time.Time]int{jan6: 0},
		DefaultCapacity:    5,
		RequestedUnits:     1,
	})
	if res.Bookable {
		t.Error("explicit zero inventory must close the date")
	}
}

func TestResolveNonInventoryHoldBlocksOnlyWholeListing(t *testing.T) {
	hold := activeBlock(t, date(2025, time.January, 5), date(2025, time.January, 7), false)

	shared := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		DefaultCapacity: 2,
		Blocks:          []*Block{hold},
		RequestedUnits:  1,
	})
	if !shared.Bookable {
		t.Error("informational hold must not consume units")
	}
	if !shared.Days[0].Held {
		t.Error("held flag should still be reported")
	}

	exclusive := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 7)),
		DefaultCapacity: 2,
		Blocks:          []*Block{hold},
		RequestedUnits:  1,
		WholeListing:    true,
	})
	if exclusive.Bookable {
		t.Error("whole-listing request must fail on any active hold")
	}
}

func TestResolveMultipleBlocksStack(t *testing.T) {
	b1 := activeBlock(t, date(2025, time.January, 5), date(2025, time.January, 7), true)
	b2 := activeBlock(t, date(2025, time.January, 6), date(2025, time.January, 8), true)
	b2.ID = "b-2"

	res := Resolve(ResolveInput{
		Range:           mustRange(t, date(2025, time.January, 5), date(2025, time.January, 8)),
		DefaultCapacity: 2,
		Blocks:          []*Block{b1, b2},
		RequestedUnits:  1,
	})
	// Jan 5: one block. Jan 6: both. Jan 7: one.
	want := []int{1, 0, 1}
	for i, day := range res.Days {
		if day.Units != want[i] {
			t.Errorf("day %d units = %d, want %d", i, day.Units, want[i])
		}
	}
	if res.Bookable {
		t.Error("jan 6 is exhausted, range must not be bookable")
	}
}
