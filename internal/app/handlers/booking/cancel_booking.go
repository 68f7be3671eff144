package booking

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/events"
	domaintenant "staybook/internal/domain/tenant"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// CancelBookingHandler flips the booking and its block to cancelled; the
// block row stays so history survives, it just stops counting against
// availability.
type CancelBookingHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return nil, domaintenant.ErrMissingFromContext
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

	now := time.Now().UTC()
	bk, err := unit.Bookings().ByID(ctx, ten.ID, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if err := bk.Cancel(now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}

	block, err := unit.Blocks().ByReference(ctx, ten.ID, string(bk.ID))
	if err == nil && block != nil {
		block.Cancel(now)
		if err := unit.Blocks().Save(ctx, block); err != nil {
			return nil, err
		}
		if err := unit.Blocks().ReleaseSlots(ctx, ten.ID, block.ID); err != nil {
			return nil, err
		}
		bk.Record(domainavailability.CalendarReleasedEvent(ten.ID, bk.ListingID, block.Range, block.Kind, now))
	}

	pending := append([]events.DomainEvent(nil), bk.PendingEvents()...)
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "tenant_id", ten.ID, "booking_id", bk.ID)
	}
	return &CancelBookingResult{BookingID: string(bk.ID), Status: string(bk.Status)}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
