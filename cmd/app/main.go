package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-token-platform/internal/config"
	"content-token-platform/internal/domain/model"
	"content-token-platform/internal/domain/ports/adapter"
	payAdapters "content-token-platform/internal/infra/adapters/payment"
	prodAdapters "content-token-platform/internal/infra/adapters/producer"
	"content-token-platform/internal/infra/api"
	pg "content-token-platform/internal/infra/db/postgres"
	"content-token-platform/internal/infra/logging"
	"content-token-platform/internal/infra/metrics"
	red "content-token-platform/internal/infra/redis"
	"content-token-platform/internal/infra/sched"
	"content-token-platform/internal/infra/worker"
	"content-token-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop provider and producer allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient.Raw())

	// ---- Repositories ----
	balanceRepo := pg.NewBalanceRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	unlockRepo := pg.NewUnlockRepo(pool)
	packageRepo := pg.NewTokenPackageRepo(pool)

	// ---- Payment providers ----
	providers := map[model.PaymentProvider]adapter.PaymentProvider{}
	if cfg.Payment.PayPal.ClientID != "" {
		pp, err := payAdapters.NewPayPalProvider(cfg.Payment.PayPal.ClientID, cfg.Payment.PayPal.Secret, cfg.Payment.PayPal.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("paypal provider")
		}
		providers[model.ProviderPayPal] = pp
	}
	if cfg.Payment.NOWPayments.APIKey != "" {
		np, err := payAdapters.NewNOWPaymentsProvider(cfg.Payment.NOWPayments.APIKey, cfg.Payment.NOWPayments.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("nowpayments provider")
		}
		providers[model.ProviderNOWPayments] = np
	}
	if cfg.Runtime.Dev {
		providers[model.ProviderNoop] = payAdapters.NewNoopProvider()
	}
	if len(providers) == 0 {
		logger.Fatal().Msg("no payment provider configured: set payment.paypal or payment.nowpayments credentials, or run with -dev")
	}

	// ---- Content producer (OpenAI -> Gemini -> Stability) ----
	var producer adapter.ContentProducer
	switch {
	case cfg.Producer.OpenAIKey != "":
		producer, err = prodAdapters.NewOpenAIProducer(cfg.Producer.OpenAIKey, cfg.Producer.Model)
	case cfg.Producer.GeminiKey != "":
		producer, err = prodAdapters.NewGeminiProducer(ctx, cfg.Producer.GeminiKey, cfg.Producer.Model)
	case cfg.Producer.StabilityKey != "":
		producer, err = prodAdapters.NewStabilityProducer(cfg.Producer.StabilityKey)
	case cfg.Runtime.Dev:
		producer = prodAdapters.NewNoopProducer()
	default:
		logger.Fatal().Msg("no producer configured: set producer.openai_key, producer.gemini_key or producer.stability_key, or run with -dev")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("producer")
	}
	logger.Info().Str("producer", producer.Name()).Msg("content producer ready")

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(balanceRepo, logger)
	unlockUC := usecase.NewUnlockUseCase(unlockRepo, ledgerUC, logger)
	settlementUC := usecase.NewSettlementUseCase(paymentRepo, ledgerUC, providers, logger)
	purchaseUC := usecase.NewPurchaseUseCase(paymentRepo, packageRepo, providers, cfg.Server.PublicURL+"/api/v1/payments/webhook", logger)
	generationUC := usecase.NewGenerationUseCase(ledgerUC, producer, rateLimiter, locker, usecase.GenerationConfig{
		ImageCost:       cfg.Producer.ImageTokens,
		VideoCost:       cfg.Producer.VideoTokens,
		ProducerTimeout: cfg.Producer.Timeout,
		RateLimit:       cfg.Producer.RateLimit,
		RateWindow:      cfg.Producer.RateWindow,
	}, logger)

	// ---- Background workers ----
	wpool := worker.NewPool(8, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	reconciler := sched.NewPaymentReconciler(settlementUC, paymentRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	metrics.MustRegister()
	srv := api.NewServer(ledgerUC, unlockUC, settlementUC, generationUC, purchaseUC,
		providers, wpool, cfg.Auth.JWTSecret, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
