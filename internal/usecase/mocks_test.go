//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memBalanceRepo is an in-memory BalanceRepository whose Debit performs
// the same check-and-decrement under one lock that the SQL conditional
// update performs in one statement, so concurrency tests exercise the
// real contract.
type memBalanceRepo struct {
	mu      sync.Mutex
	tokens  map[string]int64
	debits  int // successful debits, for at-most-once assertions
	credits int

	DebitFunc  func(ctx context.Context, userID string, amount int64) (int64, error)
	CreditFunc func(ctx context.Context, userID string, amount int64) (int64, error)
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{tokens: make(map[string]int64)}
}

func (m *memBalanceRepo) set(userID string, tokens int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = tokens
}

func (m *memBalanceRepo) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, userID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.tokens[userID]
	if cur < amount {
		return 0, domain.ErrInsufficientTokens
	}
	cur -= amount
	m.tokens[userID] = cur
	m.debits++
	return cur, nil
}

func (m *memBalanceRepo) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, userID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.tokens[userID] + amount
	m.tokens[userID] = cur
	m.credits++
	return cur, nil
}

func (m *memBalanceRepo) Get(ctx context.Context, userID string) (*model.UserBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.UserBalance{UserID: userID, Tokens: t, UpdatedAt: time.Now()}, nil
}

// memPaymentRepo keeps payments by id and provider reference and
// implements the conditional status flip under one lock.
type memPaymentRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Payment
	flips int // successful completed-flips

	SaveFunc                   func(ctx context.Context, p *model.Payment) error
	MarkCompletedIfPendingFunc func(ctx context.Context, id string, paidAt time.Time) (bool, error)
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byID: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByExternalRef(ctx context.Context, provider model.PaymentProvider, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Provider == provider && p.ExternalRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) MarkCompletedIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	if m.MarkCompletedIfPendingFunc != nil {
		return m.MarkCompletedIfPendingFunc(ctx, id, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusCompleted
	t := paidAt
	p.PaidAt = &t
	p.UpdatedAt = paidAt
	m.flips++
	return true, nil
}

func (m *memPaymentRepo) MarkTerminalIfPending(ctx context.Context, id string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.byID {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// memUnlockRepo enforces the (user, content) unique key under one lock,
// the way the unique index does in the store.
type memUnlockRepo struct {
	mu   sync.Mutex
	recs map[string]*model.UnlockRecord

	InsertFunc func(ctx context.Context, rec *model.UnlockRecord) error
	FindFunc   func(ctx context.Context, userID, contentID string) (*model.UnlockRecord, error)
}

func newMemUnlockRepo() *memUnlockRepo {
	return &memUnlockRepo{recs: make(map[string]*model.UnlockRecord)}
}

func unlockKey(userID, contentID string) string { return userID + "\x00" + contentID }

func (m *memUnlockRepo) Insert(ctx context.Context, rec *model.UnlockRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unlockKey(rec.UserID, rec.ContentID)
	if _, ok := m.recs[k]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	m.recs[k] = &cp
	return nil
}

func (m *memUnlockRepo) Exists(ctx context.Context, userID, contentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[unlockKey(userID, contentID)]
	return ok, nil
}

func (m *memUnlockRepo) Find(ctx context.Context, userID, contentID string) (*model.UnlockRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, userID, contentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[unlockKey(userID, contentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memUnlockRepo) ListByUser(ctx context.Context, userID string) ([]*model.UnlockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UnlockRecord
	for _, rec := range m.recs {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUnlockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// memPackageRepo is a trivial in-memory catalog.
type memPackageRepo struct {
	mu   sync.Mutex
	pkgs map[string]*model.TokenPackage
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{pkgs: make(map[string]*model.TokenPackage)}
}

func (m *memPackageRepo) Save(ctx context.Context, pkg *model.TokenPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pkg
	m.pkgs[pkg.ID] = &cp
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, id string) (*model.TokenPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pkgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPackageRepo) ListActive(ctx context.Context) ([]*model.TokenPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TokenPackage
	for _, p := range m.pkgs {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// mockProvider implements adapter.PaymentProvider with override hooks.
// Defaults: "finished"/"confirmed" mean paid, "expired" is terminal.
type mockProvider struct {
	name model.PaymentProvider

	CreateInvoiceFunc func(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error)
	FetchStatusFunc   func(ctx context.Context, externalRef string) (string, error)
}

func (m *mockProvider) Name() model.PaymentProvider {
	if m.name == "" {
		return model.ProviderNoop
	}
	return m.name
}

func (m *mockProvider) CreateInvoice(ctx context.Context, amount int64, currency, description, callbackURL string) (adapter.Invoice, error) {
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, amount, currency, description, callbackURL)
	}
	return adapter.Invoice{ExternalRef: "inv-1", PayURL: "https://pay.example/inv-1"}, nil
}

func (m *mockProvider) FetchStatus(ctx context.Context, externalRef string) (string, error) {
	if m.FetchStatusFunc != nil {
		return m.FetchStatusFunc(ctx, externalRef)
	}
	return "waiting", nil
}

func (m *mockProvider) ParseWebhook(body []byte) (adapter.WebhookEvent, error) {
	return adapter.WebhookEvent{}, nil
}

func (m *mockProvider) IsPaid(status string) bool {
	return status == "finished" || status == "confirmed"
}

func (m *mockProvider) IsTerminalFailure(status string) bool {
	return status == "expired" || status == "refunded"
}

// mockProducer is a controllable content producer.
type mockProducer struct {
	mu    sync.Mutex
	calls int

	ProduceFunc func(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error)
}

func (m *mockProducer) Name() string { return "mock" }

func (m *mockProducer) Produce(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ProduceFunc != nil {
		return m.ProduceFunc(ctx, req)
	}
	return &adapter.ProducerResult{URL: "https://cdn.example/out.png", Provider: "mock"}, nil
}

func (m *mockProducer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memLimiter counts hits per key in-process.
type memLimiter struct {
	mu     sync.Mutex
	counts map[string]int

	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func newMemLimiter() *memLimiter { return &memLimiter{counts: make(map[string]int)} }

func (m *memLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

// memLocker is an in-process single-flight lock.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker { return &memLocker{held: make(map[string]string)} }

func (m *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", domain.ErrGenerationBusy
	}
	m.held[key] = key
	return key, nil
}

func (m *memLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}
