package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*PayPalProvider)(nil)

// PayPalProvider implements adapter.PaymentProvider against the PayPal
// Orders v2 API. The order id is the external reference.
type PayPalProvider struct {
	clientID string
	secret   string
	sandbox  bool
	client   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalProvider(clientID, secret string, sandbox bool) (*PayPalProvider, error) {
	if clientID == "" || secret == "" {
		return nil, errors.New("paypal credentials empty")
	}
	return &PayPalProvider{
		clientID: clientID,
		secret:   secret,
		sandbox:  sandbox,
		client:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *PayPalProvider) Name() model.PaymentProvider { return model.ProviderPayPal }

func (p *PayPalProvider) endpoint(path string) string {
	base := "https://api-m.paypal.com"
	if p.sandbox {
		base = "https://api-m.sandbox.paypal.com"
	}
	return base + path
}

// token returns a cached OAuth2 access token, refreshing it when it is
// within a minute of expiry.
func (p *PayPalProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Until(p.tokenExpiry) > time.Minute {
		return p.accessToken, nil
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/v1/oauth2/token"),
		strings.NewReader("grant_type=client_credentials"))
	req.SetBasicAuth(p.clientID, p.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || out.AccessToken == "" {
		return "", fmt.Errorf("paypal oauth failed: http %d", resp.StatusCode)
	}
	p.accessToken = out.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return p.accessToken, nil
}

// CreateInvoice creates an order and returns (order id, approval URL).
func (p *PayPalProvider) CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return adapter.Invoice{}, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"description": description,
			"amount": map[string]string{
				"currency_code": currency,
				"value":         fmt.Sprintf("%d.%02d", amount/100, amount%100),
			},
		}},
		"application_context": map[string]string{
			"return_url": callbackURL,
			"cancel_url": callbackURL,
		},
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/v2/checkout/orders"), bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := p.client.Do(req)
	if err != nil {
		return adapter.Invoice{}, err
	}
	defer resp.Body.Close()

	var out struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Invoice{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.ID == "" {
		return adapter.Invoice{}, fmt.Errorf("paypal order failed: http %d", resp.StatusCode)
	}

	inv := adapter.Invoice{ExternalRef: out.ID}
	for _, l := range out.Links {
		if l.Rel == "approve" {
			inv.PayURL = l.Href
		}
	}
	return inv, nil
}

// FetchStatus calls GET /v2/checkout/orders/{id} and returns the order
// status.
func (p *PayPalProvider) FetchStatus(ctx context.Context, externalRef string) (string, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return "", err
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint("/v2/checkout/orders/"+externalRef), nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || out.Status == "" {
		return "", fmt.Errorf("paypal status failed: http %d", resp.StatusCode)
	}
	return out.Status, nil
}

// ParseWebhook reads a Checkout webhook event; the order id lives in
// resource.id and the order status in resource.status.
func (p *PayPalProvider) ParseWebhook(body []byte) (adapter.WebhookEvent, error) {
	var in struct {
		Resource struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return adapter.WebhookEvent{}, err
	}
	if in.Resource.ID == "" || in.Resource.Status == "" {
		return adapter.WebhookEvent{}, errors.New("paypal webhook missing resource id or status")
	}
	return adapter.WebhookEvent{ExternalRef: in.Resource.ID, ProviderStatus: in.Resource.Status}, nil
}

// PayPal order status vocabulary: CREATED, SAVED, APPROVED,
// PAYER_ACTION_REQUIRED, COMPLETED, VOIDED.
func (p *PayPalProvider) IsPaid(providerStatus string) bool {
	return providerStatus == "COMPLETED"
}

func (p *PayPalProvider) IsTerminalFailure(providerStatus string) bool {
	return providerStatus == "VOIDED"
}
