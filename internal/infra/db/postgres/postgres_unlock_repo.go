package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/repository"
)

var _ repository.UnlockRepository = (*unlockRepo)(nil)

type unlockRepo struct{ pool *pgxpool.Pool }

func NewUnlockRepo(pool *pgxpool.Pool) *unlockRepo {
	return &unlockRepo{pool: pool}
}

// uniqueViolation is SQLSTATE 23505; the primary key on
// (user_id, content_id) makes a duplicate insert fail with it.
const uniqueViolation = "23505"

func (r *unlockRepo) Insert(ctx context.Context, rec *model.UnlockRecord) error {
	const q = `
INSERT INTO unlocks (user_id, content_id, unlock_price, unlocked_at)
VALUES ($1, $2, $3, $4);`

	_, err := r.pool.Exec(ctx, q, rec.UserID, rec.ContentID, rec.UnlockPrice, rec.UnlockedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *unlockRepo) Exists(ctx context.Context, userID, contentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM unlocks WHERE user_id=$1 AND content_id=$2);`

	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID, contentID).Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func (r *unlockRepo) Find(ctx context.Context, userID, contentID string) (*model.UnlockRecord, error) {
	const q = `SELECT user_id, content_id, unlock_price, unlocked_at FROM unlocks WHERE user_id=$1 AND content_id=$2;`

	rec := &model.UnlockRecord{}
	err := r.pool.QueryRow(ctx, q, userID, contentID).Scan(&rec.UserID, &rec.ContentID, &rec.UnlockPrice, &rec.UnlockedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rec, nil
}

func (r *unlockRepo) ListByUser(ctx context.Context, userID string) ([]*model.UnlockRecord, error) {
	const q = `SELECT user_id, content_id, unlock_price, unlocked_at FROM unlocks WHERE user_id=$1 ORDER BY unlocked_at DESC;`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.UnlockRecord
	for rows.Next() {
		rec := &model.UnlockRecord{}
		if err := rows.Scan(&rec.UserID, &rec.ContentID, &rec.UnlockPrice, &rec.UnlockedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
