package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
	"content-token-platform/internal/infra/logging"
	"content-token-platform/internal/infra/metrics"
	"content-token-platform/internal/infra/worker"
	"content-token-platform/internal/usecase"
)

const maxWebhookBody = 64 << 10

// TaskSubmitter is the slice of the worker pool the server needs:
// webhook handlers ack the provider fast and settle in the background.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

type Server struct {
	ledger     usecase.LedgerUseCase
	unlock     usecase.UnlockUseCase
	settlement usecase.SettlementUseCase
	generation usecase.GenerationUseCase
	purchase   usecase.PurchaseUseCase
	providers  map[model.PaymentProvider]adapter.PaymentProvider
	pool       TaskSubmitter
	jwtSecret  string
	log        *zerolog.Logger
}

func NewServer(
	ledger usecase.LedgerUseCase,
	unlock usecase.UnlockUseCase,
	settlement usecase.SettlementUseCase,
	generation usecase.GenerationUseCase,
	purchase usecase.PurchaseUseCase,
	providers map[model.PaymentProvider]adapter.PaymentProvider,
	pool TaskSubmitter,
	jwtSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		ledger:     ledger,
		unlock:     unlock,
		settlement: settlement,
		generation: generation,
		purchase:   purchase,
		providers:  providers,
		pool:       pool,
		jwtSecret:  jwtSecret,
		log:        logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(3*time.Minute))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Provider callbacks carry no user token.
		r.Post("/payments/webhook/{provider}", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(Auth(s.jwtSecret))

			r.Get("/balance", s.handleBalance)
			r.Post("/unlock", s.handleUnlock)
			r.Get("/unlocks", s.handleListUnlocks)
			r.Get("/unlocks/{contentID}", s.handleIsUnlocked)
			r.Post("/generate", s.handleGenerate)
			r.Get("/packages", s.handleListPackages)
			r.Post("/purchases", s.handleInitiatePurchase)
			r.Get("/purchases/{id}", s.handlePollPurchase)
		})
	})

	return r
}

// --- handlers ---

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.ledger.Balance(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"tokens": tokens})
}

type unlockRequest struct {
	ContentID string `json:"content_id"`
	Price     int64  `json:"price"`
}

type unlockResponse struct {
	ContentID  string    `json:"content_id"`
	Already    bool      `json:"already_unlocked"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	rec, already, err := s.unlock.Unlock(r.Context(), UserIDFrom(r.Context()), req.ContentID, req.Price)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientTokens) {
			metrics.IncUnlock("insufficient")
		}
		s.writeErr(w, r, err)
		return
	}
	if already {
		metrics.IncUnlock("repeat")
	} else {
		metrics.IncUnlock("created")
	}

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	writeJSON(w, status, unlockResponse{ContentID: rec.ContentID, Already: already, UnlockedAt: rec.UnlockedAt})
}

func (s *Server) handleListUnlocks(w http.ResponseWriter, r *http.Request) {
	recs, err := s.unlock.ListUnlocked(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]unlockResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, unlockResponse{ContentID: rec.ContentID, UnlockedAt: rec.UnlockedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIsUnlocked(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	ok, err := s.unlock.IsUnlocked(r.Context(), UserIDFrom(r.Context()), contentID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": ok})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req adapter.ProduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := s.generation.Generate(r.Context(), UserIDFrom(r.Context()), req)
	if err != nil {
		metrics.IncGeneration(req.Kind, outcomeOf(err))
		if errors.Is(err, domain.ErrProducerFailed) {
			metrics.IncGenerationRefund(req.Kind)
		}
		s.writeErr(w, r, err)
		return
	}
	metrics.IncGeneration(req.Kind, "ok")
	metrics.ObserveGenerationLatency(req.Kind, res.Provider, time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, res)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientTokens):
		return "insufficient"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrGenerationBusy):
		return "busy"
	case errors.Is(err, domain.ErrProducerFailed):
		return "producer_failed"
	default:
		return "error"
	}
}

type packageResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceAmount   int64  `json:"price_amount"`
	PriceCurrency string `json:"price_currency"`
	Tokens        int64  `json:"tokens"`
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.purchase.ListPackages(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, packageResponse{
			ID: p.ID, Name: p.Name,
			PriceAmount: p.PriceAmount, PriceCurrency: p.PriceCurrency,
			Tokens: p.Tokens,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type purchaseRequest struct {
	PackageID string `json:"package_id"`
	Provider  string `json:"provider"`
}

type paymentResponse struct {
	ID             string `json:"id"`
	PackageID      string `json:"package_id"`
	Provider       string `json:"provider"`
	Status         string `json:"status"`
	TokensToCredit int64  `json:"tokens_to_credit"`
	TokensCredited int64  `json:"tokens_credited,omitempty"`
	PayURL         string `json:"pay_url,omitempty"`
}

func (s *Server) handleInitiatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	p, payURL, err := s.purchase.Initiate(r.Context(), UserIDFrom(r.Context()), req.PackageID, model.PaymentProvider(req.Provider))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	metrics.IncPayment(string(p.Status), string(p.Provider))
	writeJSON(w, http.StatusCreated, paymentResponse{
		ID: p.ID, PackageID: p.PackageID, Provider: string(p.Provider),
		Status: string(p.Status), TokensToCredit: p.TokensToCredit, PayURL: payURL,
	})
}

func (s *Server) handlePollPurchase(w http.ResponseWriter, r *http.Request) {
	res, err := s.settlement.Poll(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, domain.ErrPaymentNotPaid) {
		s.writeErr(w, r, err)
		return
	}
	p := res.Payment
	if p.UserID != UserIDFrom(r.Context()) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if res.TokensCredited > 0 {
		metrics.IncPayment(string(p.Status), string(p.Provider))
		metrics.AddTokensCredited(string(p.Provider), res.TokensCredited)
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		ID: p.ID, PackageID: p.PackageID, Provider: string(p.Provider),
		Status: string(p.Status), TokensToCredit: p.TokensToCredit,
		TokensCredited: res.TokensCredited,
	})
}

// handleWebhook acks the provider quickly and runs the settlement on
// the worker pool. A saturated queue answers 503 so the provider
// retries later.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	name := model.PaymentProvider(chi.URLParam(r, "provider"))
	prov, ok := s.providers[name]
	if !ok {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	ev, err := prov.ParseWebhook(body)
	if err != nil {
		http.Error(w, "malformed webhook", http.StatusBadRequest)
		return
	}

	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		res, err := s.settlement.Confirm(ctx, name, ev.ExternalRef, ev.ProviderStatus)
		if err != nil {
			// Not-yet-paid and unknown-ref events are normal webhook noise.
			if errors.Is(err, domain.ErrPaymentNotPaid) || errors.Is(err, domain.ErrPaymentNotFound) {
				return nil
			}
			return err
		}
		if res.TokensCredited > 0 {
			metrics.IncPayment(string(res.Payment.Status), string(name))
			metrics.AddTokensCredited(string(name), res.TokensCredited)
		}
		return nil
	}
	if err := s.pool.Submit(task); err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).
			Str("provider", string(name)).Str("external_ref", ev.ExternalRef).
			Msg("webhook settlement rejected, queue full")
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// --- error mapping ---

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientTokens):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrGenerationBusy), errors.Is(err, domain.ErrPaymentNotPaid):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrProducerFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", status)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
