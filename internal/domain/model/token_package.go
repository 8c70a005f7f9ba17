package model

import (
	"time"

	"content-token-platform/internal/domain"
)

// TokenPackage is a fixed catalog entry mapping a price to a token
// quantity (e.g. "20-tokens" -> 20).
type TokenPackage struct {
	ID            string
	Name          string
	PriceAmount   int64 // minor units of PriceCurrency
	PriceCurrency string
	Tokens        int64
	Active        bool
	CreatedAt     time.Time
}

// NewTokenPackage validates and constructs a catalog entry.
func NewTokenPackage(id, name string, priceAmount int64, priceCurrency string, tokens int64) (*TokenPackage, error) {
	if id == "" || name == "" || priceAmount <= 0 || priceCurrency == "" || tokens <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &TokenPackage{
		ID:            id,
		Name:          name,
		PriceAmount:   priceAmount,
		PriceCurrency: priceCurrency,
		Tokens:        tokens,
		Active:        true,
		CreatedAt:     time.Now(),
	}, nil
}
