package repository

import (
	"context"

	"content-token-platform/internal/domain/model"
)

// BalanceRepository persists per-user token balances. Debit and Credit
// are single-row atomic conditional updates; they are the only writers
// of the tokens column.
type BalanceRepository interface {
	// Debit decrements tokens only when the balance can fund the amount
	// (tokens >= amount evaluated inside the UPDATE, not read-then-write)
	// and returns the new balance. Returns domain.ErrInsufficientTokens
	// when the conditional update matched no row.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)

	// Credit increments tokens, creating the balance row when absent,
	// and returns the new balance.
	Credit(ctx context.Context, userID string, amount int64) (int64, error)

	// Get returns the current balance. Missing rows surface as
	// domain.ErrNotFound; callers treat that as a zero balance.
	Get(ctx context.Context, userID string) (*model.UserBalance, error)
}
