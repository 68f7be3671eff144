package quotes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainquote "staybook/internal/domain/quote"
	domainrange "staybook/internal/domain/shared/daterange"
	domaintenant "staybook/internal/domain/tenant"
)

const issueQuoteKey = "quote.issue"

var ErrNotBookable = errors.New("quotes: listing is not bookable for the requested range")

type IssueQuoteCommand struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
	Guests    int       `validate:"min=1"`
	Units     int
	TTL       time.Duration
}

func (c IssueQuoteCommand) Key() string { return issueQuoteKey }

// IssueQuoteHandler freezes "can I book, for how much" into a signed,
// time-boxed token a later booking must honor. Issuance writes nothing.
type IssueQuoteHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Quotes     *domainquote.Service
	DefaultTTL time.Duration
}

func (h *IssueQuoteHandler) Handle(ctx context.Context, cmd IssueQuoteCommand) (dto.IssuedQuote, error) {
	var zero dto.IssuedQuote
	ten, ok := domaintenant.FromContext(ctx)
	if !ok {
		return zero, domaintenant.ErrMissingFromContext
	}
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return zero, err
	}
	if err := domainbooking.ValidateDateRange(dr, time.Now().UTC()); err != nil {
		return zero, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := unit.Listings().ByID(execCtx, ten.ID, listingID); err != nil {
		return zero, err
	}

	res, err := availabilityapp.ResolveForRange(execCtx, unit, ten, listingID, dr, cmd.Units, false)
	if err != nil {
		return zero, err
	}
	if !res.Bookable {
		return zero, ErrNotBookable
	}

	engine := domainpricing.Engine{Rates: &domainpricing.RateResolver{
		Pricing:    unit.ListingPricing(),
		DailyRates: unit.DailyRates(),
	}}
	breakdown, err := engine.Quote(execCtx, domainpricing.QuoteInput{
		TenantID:  ten.ID,
		ListingID: listingID,
		Range:     dr,
		Guests:    cmd.Guests,
		Settings:  ten.Settings,
	})
	if err != nil {
		return zero, err
	}

	ttl := cmd.TTL
	if ttl <= 0 {
		ttl = h.DefaultTTL
	}
	token, q, err := h.Quotes.Issue(ten.ID, listingID, dr, cmd.Guests, breakdown.Total, ttl)
	if err != nil {
		return zero, err
	}

	if h.Logger != nil {
		h.Logger.Info("quote issued", "tenant_id", ten.ID, "listing_id", listingID, "expires_at", q.ExpiresAt)
	}

	return dto.IssuedQuote{
		Token:     token,
		ListingID: cmd.ListingID,
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Guests:    cmd.Guests,
		BaseCents: q.Base.Amount,
		Currency:  q.Base.Currency,
		ExpiresAt: q.ExpiresAt,
	}, nil
}

var _ commands.Handler[IssueQuoteCommand, dto.IssuedQuote] = (*IssueQuoteHandler)(nil)
