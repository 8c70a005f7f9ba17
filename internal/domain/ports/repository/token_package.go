package repository

import (
	"context"

	"content-token-platform/internal/domain/model"
)

type TokenPackageRepository interface {
	Save(ctx context.Context, pkg *model.TokenPackage) error
	FindByID(ctx context.Context, id string) (*model.TokenPackage, error)
	ListActive(ctx context.Context) ([]*model.TokenPackage, error)
}
