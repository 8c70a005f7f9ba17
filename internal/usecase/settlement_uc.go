package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
	"content-token-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ SettlementUseCase = (*settlementUC)(nil)

// SettlementResult reports what one confirmation actually did.
// TokensCredited is zero for duplicate deliveries.
type SettlementResult struct {
	Payment        *model.Payment
	TokensCredited int64
}

// SettlementUseCase reconciles provider confirmations against payment
// records and credits tokens exactly once per payment. Both the webhook
// path and the client poll path funnel through Confirm, which tolerates
// zero, one, or many deliveries of the same event.
type SettlementUseCase interface {
	Confirm(ctx context.Context, provider model.PaymentProvider, externalRef, providerStatus string) (*SettlementResult, error)
	// Poll fetches the provider's current status for a payment and runs
	// it through the same confirmation.
	Poll(ctx context.Context, paymentID string) (*SettlementResult, error)
}

type settlementUC struct {
	payments  repository.PaymentRepository
	ledger    LedgerUseCase
	providers map[model.PaymentProvider]adapter.PaymentProvider
	log       *zerolog.Logger
}

func NewSettlementUseCase(
	payments repository.PaymentRepository,
	ledger LedgerUseCase,
	providers map[model.PaymentProvider]adapter.PaymentProvider,
	logger *zerolog.Logger,
) *settlementUC {
	return &settlementUC{payments: payments, ledger: ledger, providers: providers, log: logger}
}

func (u *settlementUC) Confirm(ctx context.Context, provider model.PaymentProvider, externalRef, providerStatus string) (*SettlementResult, error) {
	if externalRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	prov, ok := u.providers[provider]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}

	p, err := u.payments.FindByExternalRef(ctx, provider, externalRef)
	if err != nil {
		if err == domain.ErrNotFound {
			// Stale or forged reference; webhooks for unknown invoices
			// are expected noise.
			u.log.Warn().Str("provider", string(provider)).Str("external_ref", externalRef).
				Msg("confirmation for unknown payment reference")
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	// Duplicate delivery after a finished settlement: acknowledge with
	// zero credits.
	if p.Status == model.PaymentStatusCompleted {
		return &SettlementResult{Payment: p, TokensCredited: 0}, nil
	}

	if !prov.IsPaid(providerStatus) {
		if prov.IsTerminalFailure(providerStatus) {
			if _, err := u.payments.MarkTerminalIfPending(ctx, p.ID, model.PaymentStatusFailed); err != nil {
				return nil, err
			}
			u.log.Info().Str("payment_id", p.ID).Str("provider_status", providerStatus).
				Msg("payment marked failed from provider status")
			p.Status = model.PaymentStatusFailed
			return &SettlementResult{Payment: p, TokensCredited: 0}, nil
		}
		// Still in flight on the provider side; the poll path retries
		// later and the webhook path simply acknowledges. The pending
		// payment rides along so callers can show its current state.
		return &SettlementResult{Payment: p}, domain.ErrPaymentNotPaid
	}

	now := time.Now()
	flipped, err := u.payments.MarkCompletedIfPending(ctx, p.ID, now)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// A concurrent confirmation won the conditional update and owns
		// the credit.
		fresh, err := u.payments.FindByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &SettlementResult{Payment: fresh, TokensCredited: 0}, nil
	}

	p.Status = model.PaymentStatusCompleted
	p.PaidAt = &now

	// The flip happens-before the credit. If the credit fails here the
	// record says completed while the tokens are missing: recoverable by
	// hand from this log line, never silently dropped.
	if _, err := u.ledger.Credit(ctx, p.UserID, p.TokensToCredit, "purchase:"+p.ID); err != nil {
		u.log.Error().Err(err).
			Str("payment_id", p.ID).Str("user_id", p.UserID).Int64("tokens", p.TokensToCredit).
			Msg("credit failed after completion flip; manual reconciliation required")
		return nil, fmt.Errorf("credit payment %s: %w", p.ID, err)
	}

	u.log.Info().Str("payment_id", p.ID).Str("user_id", p.UserID).
		Int64("tokens", p.TokensToCredit).Msg("payment settled")
	return &SettlementResult{Payment: p, TokensCredited: p.TokensToCredit}, nil
}

func (u *settlementUC) Poll(ctx context.Context, paymentID string) (*SettlementResult, error) {
	if paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	if p.Status == model.PaymentStatusCompleted {
		return &SettlementResult{Payment: p, TokensCredited: 0}, nil
	}
	prov, ok := u.providers[p.Provider]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	status, err := prov.FetchStatus(ctx, p.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("fetch status for payment %s: %w", p.ID, err)
	}
	return u.Confirm(ctx, p.Provider, p.ExternalRef, status)
}
