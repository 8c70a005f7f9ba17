package repository

import (
	"context"

	"content-token-platform/internal/domain/model"
)

type UnlockRepository interface {
	// Insert persists a new unlock record. The storage layer enforces
	// uniqueness on (userID, contentID); a duplicate insert returns
	// domain.ErrAlreadyExists so the caller can run its compensation.
	Insert(ctx context.Context, rec *model.UnlockRecord) error

	Exists(ctx context.Context, userID, contentID string) (bool, error)
	Find(ctx context.Context, userID, contentID string) (*model.UnlockRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*model.UnlockRecord, error)
}
