package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/tenant"
)

var (
	ErrNotFound      = errors.New("listings: not found")
	ErrTitleRequired = errors.New("listings: title is required")
	ErrInvalidState  = errors.New("listings: invalid state transition")
)

type ListingID string
type PropertyID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing belongs to exactly one tenant and one property. It carries no
// pricing itself; see Pricing, DailyRate and DailyInventory.
type Listing struct {
	ID         ListingID
	TenantID   tenant.ID
	PropertyID PropertyID
	Title      string
	State      ListingState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id ListingID, tenantID tenant.ID, propertyID PropertyID, title string, now time.Time) (*Listing, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	return &Listing{
		ID:         id,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Title:      title,
		State:      ListingDraft,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingSuspended {
		return ErrInvalidState
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	return nil
}

type Repository interface {
	ByID(ctx context.Context, tenantID tenant.ID, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}
