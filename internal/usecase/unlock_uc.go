package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ UnlockUseCase = (*unlockUC)(nil)

type UnlockUseCase interface {
	// Unlock reveals contentID to userID, debiting price tokens at most
	// once per (user, content) pair. A repeated call is an idempotent
	// success and reports already=true without a second debit.
	Unlock(ctx context.Context, userID, contentID string, price int64) (rec *model.UnlockRecord, already bool, err error)
	IsUnlocked(ctx context.Context, userID, contentID string) (bool, error)
	ListUnlocked(ctx context.Context, userID string) ([]*model.UnlockRecord, error)
}

type unlockUC struct {
	unlocks repository.UnlockRepository
	ledger  LedgerUseCase
	log     *zerolog.Logger
}

func NewUnlockUseCase(unlocks repository.UnlockRepository, ledger LedgerUseCase, logger *zerolog.Logger) *unlockUC {
	return &unlockUC{unlocks: unlocks, ledger: ledger, log: logger}
}

// Unlock runs check -> debit -> insert. The three steps span two stores
// and are not one transaction, so the unique key on (user, content) is
// the arbiter: when a concurrent request wins the insert, the loser
// refunds its own debit instead of leaving the user charged twice.
func (u *unlockUC) Unlock(ctx context.Context, userID, contentID string, price int64) (*model.UnlockRecord, bool, error) {
	if userID == "" || contentID == "" || price < 0 {
		return nil, false, domain.ErrInvalidArgument
	}

	existing, err := u.unlocks.Find(ctx, userID, contentID)
	if err == nil {
		return existing, true, nil
	}
	if err != domain.ErrNotFound {
		return nil, false, err
	}

	if _, err := u.ledger.Debit(ctx, userID, price, "unlock:"+contentID); err != nil {
		return nil, false, err
	}

	rec := &model.UnlockRecord{
		UserID:      userID,
		ContentID:   contentID,
		UnlockPrice: price,
		UnlockedAt:  time.Now(),
	}
	insertErr := u.unlocks.Insert(ctx, rec)
	if insertErr == nil {
		return rec, false, nil
	}

	// The debit above went through but no record was written: pay the
	// user back before reporting anything else.
	if _, refundErr := u.ledger.Credit(ctx, userID, price, "unlock-refund:"+contentID); refundErr != nil {
		u.log.Error().Err(refundErr).
			Str("user_id", userID).Str("content_id", contentID).Int64("amount", price).
			Msg("unlock refund failed after insert error; manual reconciliation required")
	}

	if insertErr == domain.ErrAlreadyExists {
		// Lost the race to a concurrent unlock of the same pair; the
		// winner's record stands and our debit was just returned.
		existing, err := u.unlocks.Find(ctx, userID, contentID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}
	return nil, false, insertErr
}

func (u *unlockUC) IsUnlocked(ctx context.Context, userID, contentID string) (bool, error) {
	if userID == "" || contentID == "" {
		return false, domain.ErrInvalidArgument
	}
	return u.unlocks.Exists(ctx, userID, contentID)
}

func (u *unlockUC) ListUnlocked(ctx context.Context, userID string) ([]*model.UnlockRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.unlocks.ListByUser(ctx, userID)
}
