package tenant

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("tenant: not found")
	ErrInactive     = errors.New("tenant: inactive")
	ErrSlugRequired = errors.New("tenant: slug is required")
	ErrNameRequired = errors.New("tenant: name is required")
)

// ID identifies a tenant. Every repository method in the system takes one
// explicitly; there is no query path without it.
type ID string

// Settings carries the tenant-level pricing knobs applied by the pricing
// engine and the availability resolver.
type Settings struct {
	ConvenienceFeePercent float64
	DiscountPercent       float64
	DefaultCapacity       int
	Currency              string
}

// Capacity returns the per-date unit capacity used when no inventory
// override exists for a listing date.
func (s Settings) Capacity() int {
	if s.DefaultCapacity <= 0 {
		return 1
	}
	return s.DefaultCapacity
}

type Tenant struct {
	ID        ID
	Slug      string
	Name      string
	Active    bool
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id ID, slug, name string, settings Settings, now time.Time) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrSlugRequired
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	return &Tenant{
		ID:        id,
		Slug:      slug,
		Name:      name,
		Active:    true,
		Settings:  settings,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Tenant, error)
	BySlug(ctx context.Context, slug string) (*Tenant, error)
	Save(ctx context.Context, t *Tenant) error
}
