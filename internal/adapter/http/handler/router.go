package handler

import (
	"net/http"

	"b2b-wallet/config"
	"b2b-wallet/internal/adapter/http/middleware"
	redisStore "b2b-wallet/internal/adapter/storage/redis"
	"b2b-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger         ports.LedgerService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimit      config.RateLimitConfig
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Metrics        http.Handler       // nil = /metrics not served
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (pings PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	rules := middleware.RateLimitRules(deps.RateLimit)

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok || rule.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}
	reads := rl(middleware.GroupReads)
	writes := rl(middleware.GroupMutations)

	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.Ledger)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", writes, walletHandler.Create)
		wallets.GET("", reads, walletHandler.List)
		wallets.GET("/:id", reads, walletHandler.Get)
		wallets.PATCH("/:id", writes, walletHandler.Rename)
		wallets.DELETE("/:id", writes, walletHandler.Delete)
		wallets.GET("/:id/verify", reads, walletHandler.Verify)
	}

	txHandler := NewTransactionHandler(deps.Ledger)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", writes, txHandler.Create)
		transactions.GET("", reads, txHandler.List)
		transactions.GET("/:id", reads, txHandler.Get)
		transactions.PATCH("/:id", writes, txHandler.UpdateAmount)
		transactions.DELETE("/:id", writes, txHandler.Delete)
	}

	return r
}
