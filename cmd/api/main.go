package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shipost/wallet-ledger/config"
	"github.com/shipost/wallet-ledger/internal/adapter/events/rabbitmq"
	httpHandler "github.com/shipost/wallet-ledger/internal/adapter/http/handler"
	pgStorage "github.com/shipost/wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "github.com/shipost/wallet-ledger/internal/adapter/storage/redis"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/internal/service"
	"github.com/shipost/wallet-ledger/pkg/logger"
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
		Msg("Starting Wallet Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Apply schema migrations (idempotent DDL)
	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Schema migrations applied")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize event publisher. Publishing is best-effort: a missing or
	// unreachable broker degrades to a no-op publisher instead of failing
	// startup.
	var publisher ports.EventPublisher
	if cfg.AMQP.URL != "" {
		amqpPub, err := rabbitmq.NewPublisher(cfg.AMQP, log)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, ledger events disabled")
			publisher = rabbitmq.NewNopPublisher(log)
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
			log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("RabbitMQ connected")
		}
	} else {
		publisher = rabbitmq.NewNopPublisher(log)
	}

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	entryRepo := pgStorage.NewEntryRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	ledgerSvc := service.NewLedgerService(
		accountRepo,
		entryRepo,
		transactor,
		publisher,
		pgStorage.IsSerializationError,
		log,
	)
	reconSvc := service.NewReconciliationService(accountRepo, entryRepo, log)
	historySvc := service.NewHistoryService(accountRepo, entryRepo, log)
	guard := service.NewIdempotencyGuard(idempotencyCache, idempotencyRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:         ledgerSvc,
		ReconciliationSvc: reconSvc,
		HistorySvc:        historySvc,
		TokenSvc:          tokenSvc,
		IdempotencyGuard:  guard,
		RateLimitStore:    rateLimitStore,
		HealthCheckers:    []ports.HealthChecker{pgHealth, redisHealth},
		Logger:            log,
	})

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

	log.Info().Msg("Server exited")
}
