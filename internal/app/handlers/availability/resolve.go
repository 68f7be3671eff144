package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

const resolveKey = "availability.resolve"

type ResolveQuery struct {
	ListingID    string    `validate:"required"`
	CheckIn      time.Time `validate:"required"`
	CheckOut     time.Time `validate:"required"`
	Units        int
	WholeListing bool
}

func (q ResolveQuery) Key() string { return resolveKey }

// ResolveHandler answers "can I book, and what remains per date" for one
// listing and one half-open range.
type ResolveHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ResolveHandler) Handle(ctx context.Context, q ResolveQuery) (dto.Availability, error) {
	var zero dto.Availability
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return zero, domaintenant.ErrMissingFromContext
	}
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
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

	res, err := ResolveForRange(execCtx, unit, ten, listingID, dr, q.Units, q.WholeListing)
	if err != nil {
		return zero, err
	}
	return dto.MapAvailability(q.ListingID, res), nil
}

// ResolveForRange loads blocks and inventory overrides for the range and
// runs the pure resolver. Shared with the booking path, which re-checks
// availability inside its own transaction.
func ResolveForRange(ctx context.Context, unit uow.UnitOfWork, ten *domaintenant.Tenant, listingID domainlistings.ListingID, dr domainrange.DateRange, units int, wholeListing bool) (domainavailability.Result, error) {
	blocks, err := unit.Blocks().ForRange(ctx, ten.ID, listingID, dr)
	if err != nil {
		return domainavailability.Result{}, err
	}
	overrides, err := unit.DailyInventory().ForRange(ctx, ten.ID, listingID, dr)
	if err != nil {
		return domainavailability.Result{}, err
	}
	byDate := make(map[time.Time]int, len(overrides))
	for _, o := range overrides {
		byDate[domainrange.Day(o.Date)] = o.Units
	}
	return domainavailability.Resolve(domainavailability.ResolveInput{
		Range:              dr,
		InventoryOverrides: byDate,
		DefaultCapacity:    ten.Settings.Capacity(),
		Blocks:             blocks,
		RequestedUnits:     units,
		WholeListing:       wholeListing,
	}), nil
}

var _ queries.Handler[ResolveQuery, dto.Availability] = (*ResolveHandler)(nil)
