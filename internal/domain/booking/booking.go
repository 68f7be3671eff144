package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/tenant"
)

var (
	ErrNotFound       = errors.New("booking: not found")
	ErrCheckInInPast  = errors.New("booking: check-in date is in the past")
	ErrGuestsRequired = errors.New("booking: guests must be at least 1")
	ErrNotCancellable = errors.New("booking: not cancellable")
)

type BookingID string

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is the minimal row the quote-integrity engine needs: it pins the
// redeemed quote amounts to a listing and range. The wider lifecycle state
// machine lives outside this core.
type Booking struct {
	ID        BookingID
	TenantID  tenant.ID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Guests    int
	Units     int
	Total     money.Money
	Status    Status
	Nonce     string
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type CreateParams struct {
	ID        BookingID
	TenantID  tenant.ID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Guests    int
	Units     int
	Total     money.Money
	Nonce     string
	CreatedAt time.Time
}

func New(p CreateParams) (*Booking, error) {
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}
	if p.Guests < 1 {
		return nil, ErrGuestsRequired
	}
	units := p.Units
	if units < 1 {
		units = 1
	}
	b := &Booking{
		ID:        p.ID,
		TenantID:  p.TenantID,
		ListingID: p.ListingID,
		Range:     p.Range,
		Guests:    p.Guests,
		Units:     units,
		Total:     p.Total,
		Status:    StatusConfirmed,
		Nonce:     p.Nonce,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.CreatedAt.UTC(),
	}
	b.Record(ConfirmedEvent(b, p.CreatedAt))
	return b, nil
}

func (b *Booking) Cancel(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrNotCancellable
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(CancelledEvent(b, now))
	return nil
}

func ValidateDateRange(dr daterange.DateRange, now time.Time) error {
	if daterange.Day(dr.CheckIn).Before(daterange.Day(now)) {
		return ErrCheckInInPast
	}
	return nil
}

type Repository interface {
	ByID(ctx context.Context, tenantID tenant.ID, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
}
