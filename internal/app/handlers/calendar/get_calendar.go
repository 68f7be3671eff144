package calendar

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

const getCalendarKey = "calendar.get"

type GetCalendarQuery struct {
	ListingID string    `validate:"required"`
	From      time.Time `validate:"required"`
	To        time.Time `validate:"required"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

// GetCalendarHandler backs the admin month view: blocks plus rate and
// inventory overrides for a range.
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	var zero dto.Calendar
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return zero, domaintenant.ErrMissingFromContext
	}
	dr, err := domainrange.New(q.From, q.To)
	if err != nil {
		return zero, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, ten.ID, listingID); err != nil {
		return zero, err
	}
	blocks, err := unit.Blocks().ForRange(execCtx, ten.ID, listingID, dr)
	if err != nil {
		return zero, err
	}
	rates, err := unit.DailyRates().ForRange(execCtx, ten.ID, listingID, dr)
	if err != nil {
		return zero, err
	}
	inventory, err := unit.DailyInventory().ForRange(execCtx, ten.ID, listingID, dr)
	if err != nil {
		return zero, err
	}
	return dto.MapCalendar(q.ListingID, blocks, rates, inventory), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
