package usecase

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the only writer of user token balances. Debit and
// Credit delegate to single-row conditional updates in the store, so
// concurrent operations on one user are linearizable and the balance
// can never go negative.
type LedgerUseCase interface {
	// Debit withdraws amount tokens and returns the new balance, or
	// domain.ErrInsufficientTokens when the balance cannot fund it.
	Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	// Credit deposits amount tokens and returns the new balance. A
	// negative amount is a programming error (domain.ErrInvalidAmount).
	Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	// Balance returns the current token count; users without a balance
	// row read as zero.
	Balance(ctx context.Context, userID string) (int64, error)
}

type ledgerUC struct {
	balances repository.BalanceRepository
	log      *zerolog.Logger
}

func NewLedgerUseCase(balances repository.BalanceRepository, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{balances: balances, log: logger}
}

func (u *ledgerUC) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		u.log.Error().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).
			Msg("debit called with non-positive amount")
		return 0, domain.ErrInvalidAmount
	}
	opID := ulid.Make().String()
	newBalance, err := u.balances.Debit(ctx, userID, amount)
	if err != nil {
		if err == domain.ErrInsufficientTokens {
			u.log.Debug().Str("op_id", opID).Str("user_id", userID).Int64("amount", amount).
				Str("reason", reason).Msg("debit rejected: insufficient tokens")
			return 0, err
		}
		u.log.Error().Err(err).Str("op_id", opID).Str("user_id", userID).Int64("amount", amount).
			Str("reason", reason).Msg("debit failed")
		return 0, err
	}
	u.log.Info().Str("op_id", opID).Str("user_id", userID).Int64("amount", amount).
		Int64("balance", newBalance).Str("reason", reason).Msg("tokens debited")
	return newBalance, nil
}

func (u *ledgerUC) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidArgument
	}
	if amount < 0 {
		u.log.Error().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).
			Msg("credit called with negative amount")
		return 0, domain.ErrInvalidAmount
	}
	opID := ulid.Make().String()
	newBalance, err := u.balances.Credit(ctx, userID, amount)
	if err != nil {
		u.log.Error().Err(err).Str("op_id", opID).Str("user_id", userID).Int64("amount", amount).
			Str("reason", reason).Msg("credit failed")
		return 0, err
	}
	u.log.Info().Str("op_id", opID).Str("user_id", userID).Int64("amount", amount).
		Int64("balance", newBalance).Str("reason", reason).Msg("tokens credited")
	return newBalance, nil
}

func (u *ledgerUC) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidArgument
	}
	b, err := u.balances.Get(ctx, userID)
	if err != nil {
		if err == domain.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return b.Tokens, nil
}
