package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, package_id, provider, amount, currency, external_ref, status, tokens_to_credit, created_at, updated_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.PackageID, &p.Provider, &p.Amount, &p.Currency,
		&p.ExternalRef, &p.Status, &p.TokensToCredit, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, package_id, provider, amount, currency, external_ref, status, tokens_to_credit, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  status=$8, updated_at=$11, paid_at=$12;`

	_, err := r.pool.Exec(ctx, q, p.ID, p.UserID, p.PackageID, p.Provider, p.Amount, p.Currency,
		p.ExternalRef, p.Status, p.TokensToCredit, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1;`
	return scanPayment(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepo) FindByExternalRef(ctx context.Context, provider model.PaymentProvider, externalRef string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND external_ref=$2;`
	return scanPayment(r.pool.QueryRow(ctx, q, provider, externalRef))
}

// MarkCompletedIfPending performs the conditional status flip that
// keeps two racing confirmations from both crediting: only the call
// that observes status='pending' inside the UPDATE reports true.
func (r *paymentRepo) MarkCompletedIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status=$2, paid_at=$3, updated_at=NOW()
 WHERE id=$1 AND status=$4;`

	cmd, err := r.pool.Exec(ctx, q, id, model.PaymentStatusCompleted, paidAt, model.PaymentStatusPending)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkTerminalIfPending(ctx context.Context, id string, status model.PaymentStatus) (bool, error) {
	if !status.Terminal() {
		return false, domain.ErrInvalidArgument
	}
	const q = `
UPDATE payments
   SET status=$2, updated_at=NOW()
 WHERE id=$1 AND status=$3;`

	cmd, err := r.pool.Exec(ctx, q, id, status, model.PaymentStatusPending)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status=$1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3;`
	rows, err := r.pool.Query(ctx, q, model.PaymentStatusPending, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
