package handler

import (
	"github.com/shipost/wallet-ledger/internal/adapter/http/middleware"
	redisStore "github.com/shipost/wallet-ledger/internal/adapter/storage/redis"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc         ports.LedgerService
	ReconciliationSvc ports.ReconciliationService
	HistorySvc        ports.HistoryService
	TokenSvc          ports.TokenService
	IdempotencyGuard  *service.IdempotencyGuard  // nil = request dedup disabled
	RateLimitStore    *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers    []ports.HealthChecker
	Logger            zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	readAuth := middleware.JWTAuth(deps.TokenSvc, middleware.ScopeRead, deps.Logger)
	writeAuth := middleware.JWTAuth(deps.TokenSvc, middleware.ScopeWrite, deps.Logger)
	adminAuth := middleware.JWTAuth(deps.TokenSvc, middleware.ScopeAdmin, deps.Logger)

	accountHandler := NewAccountHandler(deps.LedgerSvc, deps.HistorySvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc, deps.IdempotencyGuard)
	adminHandler := NewAdminHandler(deps.LedgerSvc, deps.ReconciliationSvc)

	v1 := r.Group("/api/v1")

	accounts := v1.Group("/accounts/:id")
	{
		accounts.GET("/balance", readAuth, rl("ledger_read"), accountHandler.GetBalance)
		accounts.GET("/sufficiency", readAuth, rl("ledger_read"), accountHandler.CheckSufficiency)
		accounts.GET("/entries", readAuth, rl("ledger_read"), accountHandler.ListEntries)
		accounts.GET("/summary", readAuth, rl("ledger_read"), accountHandler.GetSummary)

		accounts.POST("/credit", writeAuth, rl("ledger_write"), ledgerHandler.Credit)
		accounts.POST("/debit", writeAuth, rl("ledger_write"), ledgerHandler.Debit)
		accounts.POST("/refund", writeAuth, rl("ledger_write"), ledgerHandler.Refund)
	}

	admin := v1.Group("/admin/accounts/:id", adminAuth)
	{
		admin.POST("/adjust", rl("admin"), adminHandler.Adjust)
		admin.POST("/reset", rl("admin"), adminHandler.Reset)
		admin.GET("/reconciliation", rl("admin"), adminHandler.Reconcile)
	}

	return r
}
