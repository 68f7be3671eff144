package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainquote "staybook/internal/domain/quote"
	"staybook/internal/domain/shared/events"
	domaintenant "staybook/internal/domain/tenant"
)

const requestBookingKey = "booking.request"

// ErrRangeConflict is the caller-retryable answer when a concurrent booking
// took the last unit between quote issuance and redemption.
var ErrRangeConflict = errors.New("booking: requested range is no longer available")

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

type RequestBookingCommand struct {
	CommandID       string `validate:"required"`
	QuoteToken      string `validate:"required"`
	Units           int
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID    string `json:"booking_id"`
	TotalCents   int64  `json:"total_cents"`
	Currency     string `json:"currency"`
	Deduplicated bool   `json:"deduplicated"`
}

func (r *RequestBookingResult) MarkDeduplicated() { r.Deduplicated = true }

// RequestBookingHandler redeems a quote into a booking. Availability is
// re-checked and the booking's block inserted in the same unit of work; the
// unique per-date slot claim is the final arbiter so two racing requests
// cannot both take the last unit, and the nonce redemption row arbitrates
// double-redeems.
type RequestBookingHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Quotes     *domainquote.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
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

	q, err := h.Quotes.Validate(ctx, cmd.QuoteToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := domainbooking.ValidateDateRange(q.Range, now); err != nil {
		return nil, err
	}
	if _, err := unit.Listings().ByID(ctx, ten.ID, q.ListingID); err != nil {
		return nil, err
	}

	res, err := availabilityapp.ResolveForRange(ctx, unit, ten, q.ListingID, q.Range, cmd.Units, false)
	if err != nil {
		return nil, err
	}
	if !res.Bookable {
		if h.Logger != nil {
			h.Logger.Warn("overbooking prevented", "tenant_id", ten.ID, "listing_id", q.ListingID)
		}
		prevented := domainavailability.OverbookingPreventedEvent(ten.ID, q.ListingID, q.Range, now)
		_ = outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{prevented})
		return nil, ErrRangeConflict
	}

	if err := h.Quotes.Redeem(ctx, q, cmd.CommandID); err != nil {
		return nil, err
	}

	// The slot rows are the final arbiter: a concurrent booking that passed
	// the availability read above loses here on the unique
	// (tenant, listing, date, slot) constraint instead of double-applying,
	// and it loses before any booking or block row is written.
	blockID := domainavailability.BlockID(cmd.CommandID)
	firstFree := make(map[time.Time]int, len(res.Days))
	for _, day := range res.Days {
		firstFree[day.Date] = day.Consumed
	}
	claims := domainavailability.SlotClaimsFor(q.Range, firstFree, cmd.Units)
	if err := unit.Blocks().ClaimSlots(ctx, ten.ID, q.ListingID, blockID, claims); err != nil {
		if errors.Is(err, domainavailability.ErrSlotTaken) {
			if h.Logger != nil {
				h.Logger.Warn("overbooking prevented", "tenant_id", ten.ID, "listing_id", q.ListingID)
			}
			prevented := domainavailability.OverbookingPreventedEvent(ten.ID, q.ListingID, q.Range, now)
			_ = outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{prevented})
			return nil, ErrRangeConflict
		}
		return nil, err
	}

	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		TenantID:  ten.ID,
		ListingID: q.ListingID,
		Range:     q.Range,
		Guests:    q.Guests,
		Units:     cmd.Units,
		Total:     q.Base,
		Nonce:     q.Nonce,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}

	block := domainavailability.NewBlock(
		blockID,
		ten.ID, q.ListingID, q.Range,
		domainavailability.KindBooking, true, string(bk.ID), now,
	)
	if err := unit.Blocks().Save(ctx, block); err != nil {
		return nil, err
	}
	bk.Record(domainavailability.CalendarBlockedEvent(ten.ID, q.ListingID, q.Range, domainavailability.KindBooking, now))

	pending := bk.PendingEvents()
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
		h.Logger.Info("booking confirmed", "tenant_id", ten.ID, "booking_id", bk.ID, "listing_id", q.ListingID)
	}

	return &RequestBookingResult{
		BookingID:  string(bk.ID),
		TotalCents: bk.Total.Amount,
		Currency:   bk.Total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
