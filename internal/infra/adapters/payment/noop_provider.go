package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NoopProvider)(nil)

// NoopProvider is a dev-mode provider: every invoice it issues reports
// "paid" as soon as it is polled, so the full settlement path can be
// exercised without provider credentials.
type NoopProvider struct {
	seq atomic.Int64
}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (n *NoopProvider) Name() model.PaymentProvider { return model.ProviderNoop }

func (n *NoopProvider) CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error) {
	ref := fmt.Sprintf("noop-%d", n.seq.Add(1))
	return adapter.Invoice{ExternalRef: ref, PayURL: callbackURL + "?ref=" + ref}, nil
}

func (n *NoopProvider) FetchStatus(ctx context.Context, externalRef string) (string, error) {
	return "paid", nil
}

func (n *NoopProvider) ParseWebhook(body []byte) (adapter.WebhookEvent, error) {
	var in struct {
		Ref    string `json:"ref"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return adapter.WebhookEvent{}, err
	}
	if in.Ref == "" {
		return adapter.WebhookEvent{}, errors.New("noop webhook missing ref")
	}
	if in.Status == "" {
		in.Status = "paid"
	}
	return adapter.WebhookEvent{ExternalRef: in.Ref, ProviderStatus: in.Status}, nil
}

func (n *NoopProvider) IsPaid(providerStatus string) bool { return providerStatus == "paid" }

func (n *NoopProvider) IsTerminalFailure(providerStatus string) bool {
	return providerStatus == "cancelled"
}
