package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"agentshield-ledger/config"
	httpHandler "agentshield-ledger/internal/adapter/http/handler"
	pgStorage "agentshield-ledger/internal/adapter/storage/postgres"
	redisStorage "agentshield-ledger/internal/adapter/storage/redis"
	"agentshield-ledger/internal/core/ports"
	"agentshield-ledger/internal/service"
	"agentshield-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("period", cfg.Budget.Period).
		Msg("Starting AgentShield spend ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	walRepo := pgStorage.NewWALRepo(pool)

	// Initialize Redis stores
	spendCache := redisStorage.NewSpendCache(rdb, cacheTTL(cfg.Budget.Period))
	velocityStore := redisStorage.NewVelocityStore(rdb)

	// Initialize services
	receiptEmitter := service.NewSignedReceiptEmitter(cfg.Receipt.HMACSecret, logger.Component(log, "receipts"))
	authorizer := service.NewWaterfallAuthorizer(
		walletRepo,
		walRepo,
		spendCache,
		velocityStore,
		receiptEmitter,
		cfg.Budget,
		logger.Component(log, "authorizer"),
	)
	walletSvc := service.NewWalletService(walletRepo, spendCache, cfg.Budget, logger.Component(log, "wallets"))
	settlementWorker := service.NewSettlementWorker(
		walletRepo,
		walRepo,
		spendCache,
		cfg.Budget,
		logger.Component(log, "settlement"),
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Authorizer:     authorizer,
		WalletSvc:      walletSvc,
		WALRepo:        walRepo,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	// Settlement worker: recovery pass at startup, then periodic sweeps.
	workerCtx, stopWorker := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		settlementWorker.Start(workerCtx)
	}()

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stopWorker()
	wg.Wait()

	log.Info().Msg("Server exited")
}

// cacheTTL bounds how long hot counters and cached balances may linger.
// It must comfortably outlast one accounting window.
func cacheTTL(period string) time.Duration {
	if period == "daily" {
		return 48 * time.Hour
	}
	return 40 * 24 * time.Hour
}
