//go:build !integration

package api

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
	"content-token-platform/internal/infra/worker"
	"content-token-platform/internal/usecase"
)

const testSecret = "test-secret"

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func bearerFor(userID string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, _ := tok.SignedString([]byte(testSecret))
	return "Bearer " + signed
}

// syncSubmitter runs submitted tasks inline so tests observe their
// effects without a running pool.
type syncSubmitter struct {
	mu     sync.Mutex
	errs   []error
	reject bool
}

func (s *syncSubmitter) Submit(task worker.Task) error {
	if s.reject {
		return domain.ErrOperationFailed
	}
	err := task(context.Background())
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return nil
}

type mockLedger struct {
	BalanceFunc func(ctx context.Context, userID string) (int64, error)
}

var _ usecase.LedgerUseCase = (*mockLedger)(nil)

func (m *mockLedger) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	return 0, nil
}
func (m *mockLedger) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	return 0, nil
}
func (m *mockLedger) Balance(ctx context.Context, userID string) (int64, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, userID)
	}
	return 0, nil
}

type mockUnlock struct {
	UnlockFunc       func(ctx context.Context, userID, contentID string, price int64) (*model.UnlockRecord, bool, error)
	IsUnlockedFunc   func(ctx context.Context, userID, contentID string) (bool, error)
	ListUnlockedFunc func(ctx context.Context, userID string) ([]*model.UnlockRecord, error)
}

var _ usecase.UnlockUseCase = (*mockUnlock)(nil)

func (m *mockUnlock) Unlock(ctx context.Context, userID, contentID string, price int64) (*model.UnlockRecord, bool, error) {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, userID, contentID, price)
	}
	return &model.UnlockRecord{UserID: userID, ContentID: contentID, UnlockPrice: price, UnlockedAt: time.Now()}, false, nil
}
func (m *mockUnlock) IsUnlocked(ctx context.Context, userID, contentID string) (bool, error) {
	if m.IsUnlockedFunc != nil {
		return m.IsUnlockedFunc(ctx, userID, contentID)
	}
	return false, nil
}
func (m *mockUnlock) ListUnlocked(ctx context.Context, userID string) ([]*model.UnlockRecord, error) {
	if m.ListUnlockedFunc != nil {
		return m.ListUnlockedFunc(ctx, userID)
	}
	return nil, nil
}

type mockSettlement struct {
	ConfirmFunc func(ctx context.Context, provider model.PaymentProvider, externalRef, providerStatus string) (*usecase.SettlementResult, error)
	PollFunc    func(ctx context.Context, paymentID string) (*usecase.SettlementResult, error)
}

var _ usecase.SettlementUseCase = (*mockSettlement)(nil)

func (m *mockSettlement) Confirm(ctx context.Context, provider model.PaymentProvider, externalRef, providerStatus string) (*usecase.SettlementResult, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, provider, externalRef, providerStatus)
	}
	return &usecase.SettlementResult{Payment: &model.Payment{}}, nil
}
func (m *mockSettlement) Poll(ctx context.Context, paymentID string) (*usecase.SettlementResult, error) {
	if m.PollFunc != nil {
		return m.PollFunc(ctx, paymentID)
	}
	return &usecase.SettlementResult{Payment: &model.Payment{}}, nil
}

type mockGeneration struct {
	GenerateFunc func(ctx context.Context, userID string, req adapter.ProduceRequest) (*adapter.ProducerResult, error)
}

var _ usecase.GenerationUseCase = (*mockGeneration)(nil)

func (m *mockGeneration) Generate(ctx context.Context, userID string, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userID, req)
	}
	return &adapter.ProducerResult{URL: "https://cdn.invalid/x.png", Provider: "noop", Model: "noop"}, nil
}

type mockPurchase struct {
	InitiateFunc     func(ctx context.Context, userID, packageID string, provider model.PaymentProvider) (*model.Payment, string, error)
	ListPackagesFunc func(ctx context.Context) ([]*model.TokenPackage, error)
}

var _ usecase.PurchaseUseCase = (*mockPurchase)(nil)

func (m *mockPurchase) Initiate(ctx context.Context, userID, packageID string, provider model.PaymentProvider) (*model.Payment, string, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, userID, packageID, provider)
	}
	return &model.Payment{ID: "pay-1", UserID: userID, PackageID: packageID, Provider: provider, Status: model.PaymentStatusPending, TokensToCredit: 20}, "https://pay.invalid/1", nil
}
func (m *mockPurchase) ListPackages(ctx context.Context) ([]*model.TokenPackage, error) {
	if m.ListPackagesFunc != nil {
		return m.ListPackagesFunc(ctx)
	}
	return nil, nil
}

// mockWebhookProvider only needs ParseWebhook for the handler path.
type mockWebhookProvider struct {
	name             model.PaymentProvider
	ParseWebhookFunc func(body []byte) (adapter.WebhookEvent, error)
}

var _ adapter.PaymentProvider = (*mockWebhookProvider)(nil)

func (m *mockWebhookProvider) Name() model.PaymentProvider { return m.name }
func (m *mockWebhookProvider) CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error) {
	return adapter.Invoice{}, nil
}
func (m *mockWebhookProvider) FetchStatus(ctx context.Context, externalRef string) (string, error) {
	return "", nil
}
func (m *mockWebhookProvider) ParseWebhook(body []byte) (adapter.WebhookEvent, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(body)
	}
	return adapter.WebhookEvent{ExternalRef: "inv-1", ProviderStatus: "finished"}, nil
}
func (m *mockWebhookProvider) IsPaid(s string) bool            { return s == "finished" }
func (m *mockWebhookProvider) IsTerminalFailure(s string) bool { return s == "expired" }
