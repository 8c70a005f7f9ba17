package repository

import (
	"context"
	"time"

	"content-token-platform/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	// FindByExternalRef resolves a provider-assigned reference; the pair
	// (provider, externalRef) is unique.
	FindByExternalRef(ctx context.Context, provider model.PaymentProvider, externalRef string) (*model.Payment, error)

	// MarkCompletedIfPending flips status to completed only when it is
	// still pending, and reports whether this call performed the flip.
	// This conditional update is the concurrency control that keeps two
	// racing confirmations from both crediting.
	MarkCompletedIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// MarkTerminalIfPending moves a pending payment to failed or
	// cancelled. Flips on completed records are rejected by the guard.
	MarkTerminalIfPending(ctx context.Context, id string, status model.PaymentStatus) (bool, error)

	ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
}
