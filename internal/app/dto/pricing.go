package dto

import (
	"time"

	"staybook/internal/domain/pricing"
)

type NightRate struct {
	Date      string `json:"date"`
	RateCents int64  `json:"rate_cents"`
}

type StayQuote struct {
	ListingID     string      `json:"listing_id"`
	CheckIn       time.Time   `json:"check_in"`
	CheckOut      time.Time   `json:"check_out"`
	Nights        []NightRate `json:"nights"`
	BaseCents     int64       `json:"base_cents"`
	DiscountCents int64       `json:"discount_cents"`
	FeeCents      int64       `json:"fee_cents"`
	TotalCents    int64       `json:"total_cents"`
	Currency      string      `json:"currency"`
}

func MapStayQuote(listingID string, checkIn, checkOut time.Time, b pricing.StayBreakdown) StayQuote {
	out := StayQuote{
		ListingID:     listingID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		BaseCents:     b.Base.Amount,
		DiscountCents: b.Discount.Amount,
		FeeCents:      b.Fee.Amount,
		TotalCents:    b.Total.Amount,
		Currency:      b.Total.Currency,
		Nights:        make([]NightRate, 0, len(b.Nights)),
	}
	for _, n := range b.Nights {
		out.Nights = append(out.Nights, NightRate{
			Date:      n.Date.Format(time.DateOnly),
			RateCents: n.Rate.Amount,
		})
	}
	return out
}
