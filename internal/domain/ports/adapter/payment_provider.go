package adapter

import (
	"context"

	"content-token-platform/internal/domain/model"
)

// Invoice is what the caller hands back to the client so it can finish
// checkout with the provider.
type Invoice struct {
	ExternalRef string // provider invoice/order id
	PayURL      string // redirect URL for the client
}

// WebhookEvent is the provider-agnostic shape the settlement flow needs
// from an inbound notification: a reference and the provider's raw
// status word. Everything else in the payload is ignored here.
type WebhookEvent struct {
	ExternalRef    string
	ProviderStatus string
}

// PaymentProvider abstracts one external payment processor. The status
// vocabulary stays provider-specific; IsPaid/IsTerminalFailure are the
// explicit per-provider mapping from that vocabulary to the booleans
// settlement cares about.
type PaymentProvider interface {
	Name() model.PaymentProvider

	// CreateInvoice registers a charge with the provider and returns the
	// provider-assigned reference plus a redirect URL.
	CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (Invoice, error)

	// FetchStatus polls the provider for the raw status of a reference.
	FetchStatus(ctx context.Context, externalRef string) (string, error)

	// ParseWebhook extracts the reference and raw status from an inbound
	// notification body.
	ParseWebhook(body []byte) (WebhookEvent, error)

	// IsPaid reports whether a raw provider status means the money is in.
	IsPaid(providerStatus string) bool

	// IsTerminalFailure reports whether a raw provider status means the
	// payment can never complete (expired, refunded, cancelled...).
	IsTerminalFailure(providerStatus string) bool
}
