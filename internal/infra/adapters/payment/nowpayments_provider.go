package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NOWPaymentsProvider)(nil)

// NOWPaymentsProvider implements adapter.PaymentProvider against the
// NOWPayments REST v1 invoice API.
type NOWPaymentsProvider struct {
	apiKey  string
	sandbox bool
	client  *http.Client
}

func NewNOWPaymentsProvider(apiKey string, sandbox bool) (*NOWPaymentsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("nowpayments api key empty")
	}
	return &NOWPaymentsProvider{
		apiKey:  apiKey,
		sandbox: sandbox,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (n *NOWPaymentsProvider) Name() model.PaymentProvider { return model.ProviderNOWPayments }

func (n *NOWPaymentsProvider) endpoint(path string) string {
	base := "https://api.nowpayments.io/v1"
	if n.sandbox {
		base = "https://api-sandbox.nowpayments.io/v1"
	}
	return base + path
}

// CreateInvoice calls POST /invoice and returns (invoice id, invoice URL).
func (n *NOWPaymentsProvider) CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error) {
	payload := map[string]any{
		"price_amount":      float64(amount) / 100,
		"price_currency":    currency,
		"order_description": description,
		"ipn_callback_url":  callbackURL,
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint("/invoice"), bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return adapter.Invoice{}, err
	}
	defer resp.Body.Close()

	var out struct {
		ID         string `json:"id"`
		InvoiceURL string `json:"invoice_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Invoice{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.ID == "" {
		return adapter.Invoice{}, fmt.Errorf("nowpayments invoice failed: http %d", resp.StatusCode)
	}
	return adapter.Invoice{ExternalRef: out.ID, PayURL: out.InvoiceURL}, nil
}

// FetchStatus calls GET /payment/{id} and returns the raw payment_status.
func (n *NOWPaymentsProvider) FetchStatus(ctx context.Context, externalRef string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint("/payment/"+externalRef), nil)
	req.Header.Set("x-api-key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.PaymentStatus == "" {
		return "", fmt.Errorf("nowpayments status failed: http %d", resp.StatusCode)
	}
	return out.PaymentStatus, nil
}

// ParseWebhook reads the IPN payload. NOWPayments sends order_id as the
// invoice id and payment_status as the raw status word.
func (n *NOWPaymentsProvider) ParseWebhook(body []byte) (adapter.WebhookEvent, error) {
	var in struct {
		OrderID       string      `json:"order_id"`
		InvoiceID     json.Number `json:"invoice_id"`
		PaymentStatus string      `json:"payment_status"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return adapter.WebhookEvent{}, err
	}
	ref := in.OrderID
	if ref == "" {
		ref = in.InvoiceID.String()
	}
	if ref == "" || in.PaymentStatus == "" {
		return adapter.WebhookEvent{}, errors.New("nowpayments webhook missing order id or status")
	}
	return adapter.WebhookEvent{ExternalRef: ref, ProviderStatus: in.PaymentStatus}, nil
}

// NOWPayments status vocabulary: waiting, confirming, confirmed,
// sending, partially_paid, finished, failed, refunded, expired.
func (n *NOWPaymentsProvider) IsPaid(providerStatus string) bool {
	switch providerStatus {
	case "finished", "confirmed":
		return true
	}
	return false
}

func (n *NOWPaymentsProvider) IsTerminalFailure(providerStatus string) bool {
	switch providerStatus {
	case "failed", "refunded", "expired":
		return true
	}
	return false
}
