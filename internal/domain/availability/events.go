package availability

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/tenant"
)

type CalendarBlocked struct {
	TenantID  string
	ListingID string
	Range     daterange.DateRange
	Kind      BlockKind
	At        time.Time
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.ListingID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }
func (e CalendarBlocked) EventTenantID() string { return e.TenantID }

type CalendarReleased struct {
	TenantID  string
	ListingID string
	Range     daterange.DateRange
	Kind      BlockKind
	At        time.Time
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.ListingID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }
func (e CalendarReleased) EventTenantID() string { return e.TenantID }

type OverbookingPrevented struct {
	TenantID  string
	ListingID string
	Range     daterange.DateRange
	At        time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.ListingID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
func (e OverbookingPrevented) EventTenantID() string { return e.TenantID }

func CalendarBlockedEvent(tenantID tenant.ID, id listings.ListingID, r daterange.DateRange, kind BlockKind, at time.Time) CalendarBlocked {
	return CalendarBlocked{TenantID: string(tenantID), ListingID: string(id), Range: r, Kind: kind, At: at}
}

func CalendarReleasedEvent(tenantID tenant.ID, id listings.ListingID, r daterange.DateRange, kind BlockKind, at time.Time) CalendarReleased {
	return CalendarReleased{TenantID: string(tenantID), ListingID: string(id), Range: r, Kind: kind, At: at}
}

func OverbookingPreventedEvent(tenantID tenant.ID, id listings.ListingID, r daterange.DateRange, at time.Time) OverbookingPrevented {
	return OverbookingPrevented{TenantID: string(tenantID), ListingID: string(id), Range: r, At: at}
}
