package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	domaintenant "staybook/internal/domain/tenant"
)

const upsertCalendarKey = "calendar.upsert"

var (
	ErrNoCells            = errors.New("calendar: at least one cell is required")
	ErrInvalidCells       = errors.New("calendar: invalid cells")
	ErrUnitOfWorkRequired = errors.New("calendar: unit of work required")
)

// Cell is one calendar date to upsert. Nil fields leave that aspect of the
// date untouched.
type Cell struct {
	Date      time.Time `validate:"required"`
	RateCents *int64
	Units     *int
	Source    string
	Reason    string
}

type UpsertCalendarCommand struct {
	ListingID       string `validate:"required"`
	Cells           []Cell
	IdempotencyKeyV string
}

func (c UpsertCalendarCommand) Key() string { return upsertCalendarKey }

func (c UpsertCalendarCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpsertCalendarCommand) ResultPrototype() any { return &UpsertCalendarResult{} }

// Validate rejects the whole batch before any write, naming each offending
// cell, so a valid sibling cell is never applied alongside a bad one.
func (c UpsertCalendarCommand) Validate() error {
	if len(c.Cells) == 0 {
		return ErrNoCells
	}
	var bad []string
	for i, cell := range c.Cells {
		if cell.Date.IsZero() {
			bad = append(bad, fmt.Sprintf("cell %d: date is required", i))
			continue
		}
		if cell.RateCents != nil && *cell.RateCents < 0 {
			bad = append(bad, fmt.Sprintf("cell %d (%s): rate must be non-negative", i, cell.Date.Format(time.DateOnly)))
		}
		if cell.Units != nil && *cell.Units < 0 {
			bad = append(bad, fmt.Sprintf("cell %d (%s): units must be non-negative", i, cell.Date.Format(time.DateOnly)))
		}
		if cell.RateCents == nil && cell.Units == nil {
			bad = append(bad, fmt.Sprintf("cell %d (%s): nothing to upsert", i, cell.Date.Format(time.DateOnly)))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCells, bad)
	}
	return nil
}

type CellResult struct {
	Date      string `json:"date"`
	RateCents *int64 `json:"rate_cents,omitempty"`
	Units     *int   `json:"units,omitempty"`
}

type UpsertCalendarResult struct {
	ListingID    string       `json:"listing_id"`
	Cells        []CellResult `json:"cells"`
	Deduplicated bool         `json:"deduplicated"`
}

func (r *UpsertCalendarResult) MarkDeduplicated() { r.Deduplicated = true }

// UpsertCalendarHandler applies an admin bulk calendar write: per-date rate
// overrides and inventory overrides, unique per (tenant, listing, date).
// Replays of the same Idempotency-Key never reach this handler.
type UpsertCalendarHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
}

func (h *UpsertCalendarHandler) Handle(ctx context.Context, cmd UpsertCalendarCommand) (*UpsertCalendarResult, error) {
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return nil, domaintenant.ErrMissingFromContext
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(ctx, ten.ID, listingID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	currency := ten.Settings.Currency
	result := &UpsertCalendarResult{ListingID: cmd.ListingID}
	for _, cell := range cmd.Cells {
		date := domainrange.Day(cell.Date)
		if cell.RateCents != nil {
			rate, err := money.New(*cell.RateCents, currency)
			if err != nil {
				return nil, err
			}
			source := domainlistings.RateSource(cell.Source)
			if source == "" {
				source = domainlistings.RateSourceManual
			}
			daily := domainlistings.DailyRate{
				TenantID:  ten.ID,
				ListingID: listingID,
				Date:      date,
				Rate:      rate,
				Source:    source,
				Reason:    cell.Reason,
				UpdatedAt: now,
			}
			if err := daily.Validate(); err != nil {
				return nil, err
			}
			if err := unit.DailyRates().Upsert(ctx, daily); err != nil {
				return nil, err
			}
		}
		if cell.Units != nil {
			inv := domainlistings.DailyInventory{
				TenantID:  ten.ID,
				ListingID: listingID,
				Date:      date,
				Units:     *cell.Units,
				UpdatedAt: now,
			}
			if err := inv.Validate(); err != nil {
				return nil, err
			}
			if err := unit.DailyInventory().Upsert(ctx, inv); err != nil {
				return nil, err
			}
		}
		result.Cells = append(result.Cells, CellResult{
			Date:      date.Format(time.DateOnly),
			RateCents: cell.RateCents,
			Units:     cell.Units,
		})
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("calendar upserted", "tenant_id", ten.ID, "listing_id", listingID, "cells", len(cmd.Cells))
	}
	return result, nil
}

var _ commands.Handler[UpsertCalendarCommand, *UpsertCalendarResult] = (*UpsertCalendarHandler)(nil)
var _ middleware.IdempotentCommand = (*UpsertCalendarCommand)(nil)
