//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/ports/adapter"
	"content-token-platform/internal/usecase"
)

type generationDeps struct {
	balances *memBalanceRepo
	producer *mockProducer
	limiter  *memLimiter
	locker   *memLocker
	ledger   usecase.LedgerUseCase
	uc       usecase.GenerationUseCase
}

func newGenerationDeps(cfg usecase.GenerationConfig) *generationDeps {
	d := &generationDeps{
		balances: newMemBalanceRepo(),
		producer: &mockProducer{},
		limiter:  newMemLimiter(),
		locker:   newMemLocker(),
	}
	if cfg.ImageCost == 0 {
		cfg.ImageCost = 1
	}
	if cfg.VideoCost == 0 {
		cfg.VideoCost = 5
	}
	d.ledger = usecase.NewLedgerUseCase(d.balances, newTestLogger())
	d.uc = usecase.NewGenerationUseCase(d.ledger, d.producer, d.limiter, d.locker, cfg, newTestLogger())
	return d
}

func imageReq() adapter.ProduceRequest {
	return adapter.ProduceRequest{Kind: "image", Prompt: "a lighthouse at dusk"}
}

func TestGenerationUseCase_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("should debit the cost and return the producer result", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{})
		deps.balances.set("u", 10)

		res, err := deps.uc.Generate(ctx, "u", imageReq())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if res.URL == "" {
			t.Error("expected a content URL")
		}
		if b, _ := deps.ledger.Balance(ctx, "u"); b != 9 {
			t.Errorf("expected balance 9, got %d", b)
		}
	})

	t.Run("should refund the debit when the producer fails", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{})
		deps.balances.set("u", 10)
		deps.producer.ProduceFunc = func(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
			return nil, errors.New("upstream 500")
		}

		_, err := deps.uc.Generate(ctx, "u", imageReq())
		if !errors.Is(err, domain.ErrProducerFailed) {
			t.Fatalf("expected ErrProducerFailed, got: %v", err)
		}
		if b, _ := deps.ledger.Balance(ctx, "u"); b != 10 {
			t.Errorf("expected balance restored to 10, got %d", b)
		}
	})

	t.Run("should fail fast without calling the producer when funds are short", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{VideoCost: 5})
		deps.balances.set("u", 2)

		_, err := deps.uc.Generate(ctx, "u", adapter.ProduceRequest{Kind: "video", Prompt: "x"})
		if !errors.Is(err, domain.ErrInsufficientTokens) {
			t.Fatalf("expected ErrInsufficientTokens, got: %v", err)
		}
		if deps.producer.callCount() != 0 {
			t.Error("producer was called despite insufficient funds")
		}
	})

	t.Run("should treat a timeout as producer failure and refund", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{ProducerTimeout: 20 * time.Millisecond})
		deps.balances.set("u", 10)
		deps.producer.ProduceFunc = func(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		_, err := deps.uc.Generate(ctx, "u", imageReq())
		if !errors.Is(err, domain.ErrProducerFailed) {
			t.Fatalf("expected ErrProducerFailed, got: %v", err)
		}
		if b, _ := deps.ledger.Balance(ctx, "u"); b != 10 {
			t.Errorf("expected balance restored to 10, got %d", b)
		}
	})

	t.Run("should reject over-limit requests before debiting", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{RateLimit: 2})
		deps.balances.set("u", 10)

		for i := 0; i < 2; i++ {
			if _, err := deps.uc.Generate(ctx, "u", imageReq()); err != nil {
				t.Fatalf("warm-up generate %d: %v", i, err)
			}
		}
		_, err := deps.uc.Generate(ctx, "u", imageReq())
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got: %v", err)
		}
		if b, _ := deps.ledger.Balance(ctx, "u"); b != 8 {
			t.Errorf("rate-limited request touched the balance: %d", b)
		}
	})

	t.Run("should refuse a second in-flight generation for the same user", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{})
		deps.balances.set("u", 10)
		if _, err := deps.locker.TryLock(ctx, "gen_lock:u", time.Minute); err != nil {
			t.Fatalf("pre-lock: %v", err)
		}

		_, err := deps.uc.Generate(ctx, "u", imageReq())
		if !errors.Is(err, domain.ErrGenerationBusy) {
			t.Fatalf("expected ErrGenerationBusy, got: %v", err)
		}
	})

	t.Run("should reject an unknown kind", func(t *testing.T) {
		deps := newGenerationDeps(usecase.GenerationConfig{})
		_, err := deps.uc.Generate(ctx, "u", adapter.ProduceRequest{Kind: "audio", Prompt: "x"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}
