package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/ports/repository"
	"content-token-platform/internal/infra/metrics"
	"content-token-platform/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and
// tries to finalize them through the settlement poll. This covers
// webhooks that never arrived and processes that crashed between the
// provider confirming and the credit landing.
type PaymentReconciler struct {
	settlement usecase.SettlementUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	settlement usecase.SettlementUseCase,
	payments repository.PaymentRepository,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{
		settlement: settlement,
		payments:   payments,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list pending failed")
		return
	}
	for _, p := range pending {
		res, err := w.settlement.Poll(ctx, p.ID)
		if err != nil {
			// Still unpaid on the provider side; leave it for a later pass.
			if errors.Is(err, domain.ErrPaymentNotPaid) {
				continue
			}
			w.log.Warn().Err(err).Str("payment_id", p.ID).
				Msg("payment-reconciler: poll failed")
			continue
		}
		if res.TokensCredited > 0 {
			metrics.IncPayment(string(res.Payment.Status), string(res.Payment.Provider))
			metrics.AddTokensCredited(string(res.Payment.Provider), res.TokensCredited)
			w.log.Info().Str("payment_id", p.ID).Int64("tokens", res.TokensCredited).
				Msg("payment-reconciler: reconciled")
		}
	}
}
