package model

import (
	"time"

	"content-token-platform/internal/domain"
)

type PaymentProvider string

const (
	ProviderPayPal      PaymentProvider = "paypal"
	ProviderNOWPayments PaymentProvider = "nowpayments"
	ProviderNoop        PaymentProvider = "noop" // dev mode only
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; awaiting provider confirmation
	PaymentStatusCompleted PaymentStatus = "completed" // confirmed paid, tokens credited (terminal)
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported failure (terminal)
	PaymentStatusCancelled PaymentStatus = "cancelled" // user/provider cancel (terminal)
)

// Terminal reports whether no further status transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Payment records one initiated purchase of a token package.
type Payment struct {
	ID          string // UUID
	UserID      string
	PackageID   string
	Provider    PaymentProvider
	Amount      int64  // charged price in minor units, informational for the ledger
	Currency    string // ISO-ish code, e.g. "USD"
	ExternalRef string // provider-assigned invoice/order id, unique per provider
	Status      PaymentStatus
	// TokensToCredit is resolved from the package at creation time so a
	// later catalog change never alters a pending payment.
	TokensToCredit int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time // set when completed
}

// NewPayment builds a pending payment with the token quantity snapshot
// taken from the package.
func NewPayment(id, userID string, pkg *TokenPackage, provider PaymentProvider, externalRef string) (*Payment, error) {
	if id == "" || userID == "" || pkg == nil || externalRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:             id,
		UserID:         userID,
		PackageID:      pkg.ID,
		Provider:       provider,
		Amount:         pkg.PriceAmount,
		Currency:       pkg.PriceCurrency,
		ExternalRef:    externalRef,
		Status:         PaymentStatusPending,
		TokensToCredit: pkg.Tokens,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
