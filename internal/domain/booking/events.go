package booking

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

type Confirmed struct {
	BookingID  string
	TenantID   string
	ListingID  string
	Range      daterange.DateRange
	TotalCents int64
	Currency   string
	At         time.Time
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return e.BookingID }
func (e Confirmed) OccurredAt() time.Time { return e.At }
func (e Confirmed) EventTenantID() string { return e.TenantID }

type Cancelled struct {
	BookingID string
	TenantID  string
	ListingID string
	At        time.Time
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return e.BookingID }
func (e Cancelled) OccurredAt() time.Time { return e.At }
func (e Cancelled) EventTenantID() string { return e.TenantID }

func ConfirmedEvent(b *Booking, at time.Time) Confirmed {
	return Confirmed{
		BookingID:  string(b.ID),
		TenantID:   string(b.TenantID),
		ListingID:  string(b.ListingID),
		Range:      b.Range,
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
		At:         at.UTC(),
	}
}

func CancelledEvent(b *Booking, at time.Time) Cancelled {
	return Cancelled{
		BookingID: string(b.ID),
		TenantID:  string(b.TenantID),
		ListingID: string(b.ListingID),
		At:        at.UTC(),
	}
}
