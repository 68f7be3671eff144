package dto

import "time"

type IssuedQuote struct {
	Token     string    `json:"token"`
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Guests    int       `json:"guests"`
	BaseCents int64     `json:"base_cents"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expires_at"`
}
