package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/repository"
	"content-token-platform/internal/infra/metrics"
)

var _ repository.BalanceRepository = (*balanceRepo)(nil)

type balanceRepo struct{ pool *pgxpool.Pool }

func NewBalanceRepo(pool *pgxpool.Pool) *balanceRepo {
	return &balanceRepo{pool: pool}
}

// Debit is a single conditional UPDATE: the funds check and the
// decrement happen in one statement, so two racing debits can never
// both pass a stale balance check. A missed update (no row, or
// tokens < amount) reads back as insufficient funds either way.
func (r *balanceRepo) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	const q = `
UPDATE balances
   SET tokens = tokens - $2, updated_at = NOW()
 WHERE user_id = $1 AND tokens >= $2
RETURNING tokens;`

	var tokens int64
	if err := r.pool.QueryRow(ctx, q, userID, amount).Scan(&tokens); err != nil {
		if err == pgx.ErrNoRows {
			metrics.IncInsufficient()
			return 0, domain.ErrInsufficientTokens
		}
		return 0, domain.ErrOperationFailed
	}
	metrics.AddDebited(amount)
	return tokens, nil
}

// Credit upserts so a first-ever credit creates the balance row.
func (r *balanceRepo) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	const q = `
INSERT INTO balances (user_id, tokens, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE
   SET tokens = balances.tokens + $2, updated_at = NOW()
RETURNING tokens;`

	var tokens int64
	if err := r.pool.QueryRow(ctx, q, userID, amount).Scan(&tokens); err != nil {
		return 0, domain.ErrOperationFailed
	}
	metrics.AddCredited(amount)
	return tokens, nil
}

func (r *balanceRepo) Get(ctx context.Context, userID string) (*model.UserBalance, error) {
	const q = `SELECT user_id, tokens, updated_at FROM balances WHERE user_id = $1;`

	b := &model.UserBalance{}
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&b.UserID, &b.Tokens, &b.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}
