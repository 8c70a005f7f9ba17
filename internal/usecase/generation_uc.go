package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// RateLimiter gates how often one user may start a generation.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Locker provides a per-user single-flight lock around the producer
// call.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// GenerationUseCase is the gate in front of the content producer:
// debit first, call the producer under a bounded timeout, refund when
// it fails. The producer call cannot join the ledger's atomic update,
// so the refund is an explicit compensation, and a refund that itself
// fails is logged for manual reconciliation.
type GenerationUseCase interface {
	Generate(ctx context.Context, userID string, req adapter.ProduceRequest) (*adapter.ProducerResult, error)
}

type GenerationConfig struct {
	ImageCost       int64
	VideoCost       int64
	ProducerTimeout time.Duration
	RateLimit       int
	RateWindow      time.Duration
}

type generationUC struct {
	ledger   LedgerUseCase
	producer adapter.ContentProducer
	limiter  RateLimiter
	locker   Locker
	cfg      GenerationConfig
	log      *zerolog.Logger
}

func NewGenerationUseCase(
	ledger LedgerUseCase,
	producer adapter.ContentProducer,
	limiter RateLimiter,
	locker Locker,
	cfg GenerationConfig,
	logger *zerolog.Logger,
) *generationUC {
	if cfg.ProducerTimeout <= 0 {
		cfg.ProducerTimeout = 2 * time.Minute
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	return &generationUC{ledger: ledger, producer: producer, limiter: limiter, locker: locker, cfg: cfg, log: logger}
}

func (u *generationUC) cost(kind string) (int64, error) {
	switch kind {
	case "image":
		return u.cfg.ImageCost, nil
	case "video":
		return u.cfg.VideoCost, nil
	default:
		return 0, domain.ErrInvalidArgument
	}
}

func (u *generationUC) Generate(ctx context.Context, userID string, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	if userID == "" || req.Prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	cost, err := u.cost(req.Kind)
	if err != nil {
		return nil, err
	}

	ok, err := u.limiter.Allow(ctx, "gen_rate:"+userID, u.cfg.RateLimit, u.cfg.RateWindow)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRateLimited
	}

	// One in-flight generation per user; the lock outlives the producer
	// timeout so a slow call cannot overlap its successor.
	lockKey := "gen_lock:" + userID
	token, err := u.locker.TryLock(ctx, lockKey, u.cfg.ProducerTimeout+30*time.Second)
	if err != nil {
		return nil, domain.ErrGenerationBusy
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("generation lock release failed")
		}
	}()

	// Fail fast: no producer call is made when funds are insufficient.
	if _, err := u.ledger.Debit(ctx, userID, cost, "generate:"+req.Kind); err != nil {
		return nil, err
	}

	prodCtx, cancel := context.WithTimeout(ctx, u.cfg.ProducerTimeout)
	defer cancel()

	res, prodErr := u.producer.Produce(prodCtx, req)
	if prodErr != nil {
		// Refund the full cost; a timeout counts as producer failure.
		// Use a context detached from the (possibly expired) producer
		// deadline so the compensation itself is not starved.
		if _, refundErr := u.ledger.Credit(context.WithoutCancel(ctx), userID, cost, "generate-refund:"+req.Kind); refundErr != nil {
			u.log.Error().Err(refundErr).
				Str("user_id", userID).Int64("amount", cost).Str("kind", req.Kind).
				Msg("generation refund failed after producer error; manual reconciliation required")
		}
		u.log.Warn().Err(prodErr).Str("user_id", userID).Str("kind", req.Kind).
			Str("producer", u.producer.Name()).Msg("producer failed, tokens refunded")
		return nil, fmt.Errorf("%w: %v", domain.ErrProducerFailed, prodErr)
	}

	return res, nil
}
