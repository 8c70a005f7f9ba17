package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/repository"
)

var _ repository.TokenPackageRepository = (*tokenPackageRepo)(nil)

type tokenPackageRepo struct{ pool *pgxpool.Pool }

func NewTokenPackageRepo(pool *pgxpool.Pool) *tokenPackageRepo {
	return &tokenPackageRepo{pool: pool}
}

func (r *tokenPackageRepo) Save(ctx context.Context, p *model.TokenPackage) error {
	const q = `
INSERT INTO token_packages (id, name, price_amount, price_currency, tokens, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, price_amount=$3, price_currency=$4, tokens=$5, active=$6;`

	_, err := r.pool.Exec(ctx, q, p.ID, p.Name, p.PriceAmount, p.PriceCurrency, p.Tokens, p.Active, p.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *tokenPackageRepo) FindByID(ctx context.Context, id string) (*model.TokenPackage, error) {
	const q = `SELECT id, name, price_amount, price_currency, tokens, active, created_at FROM token_packages WHERE id=$1;`

	p := &model.TokenPackage{}
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.PriceAmount, &p.PriceCurrency, &p.Tokens, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *tokenPackageRepo) ListActive(ctx context.Context) ([]*model.TokenPackage, error) {
	const q = `SELECT id, name, price_amount, price_currency, tokens, active, created_at FROM token_packages WHERE active ORDER BY price_amount ASC;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.TokenPackage
	for rows.Next() {
		p := &model.TokenPackage{}
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceAmount, &p.PriceCurrency, &p.Tokens, &p.Active, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
