package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"b2b-wallet/config"
	httpHandler "b2b-wallet/internal/adapter/http/handler"
	"b2b-wallet/internal/adapter/metrics"
	pgStorage "b2b-wallet/internal/adapter/storage/postgres"
	redisStorage "b2b-wallet/internal/adapter/storage/redis"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/internal/service"
	"b2b-wallet/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting B2B wallet service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.AutoMigrate {
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Schema up to date")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	var opts []service.LedgerOption
	if cfg.Cache.Enabled {
		cache := redisStorage.NewResilientWalletCache(
			redisStorage.NewWalletCache(rdb, cfg.Cache.TTL),
			cfg.Cache,
			logger.Component(log, "wallet_cache"),
		)
		opts = append(opts, service.WithWalletCache(cache))
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		recorder := metrics.NewPrometheusRecorder(cfg.Metrics.Namespace)
		if err := recorder.Register(prometheus.DefaultRegisterer); err != nil {
			log.Fatal().Err(err).Msg("Failed to register metrics")
		}
		opts = append(opts, service.WithMetrics(recorder))
		metricsHandler = promhttp.Handler()
	}

	// Initialize business services
	ledger := service.NewLedgerService(walletRepo, txRepo, transactor, logger.Component(log, "ledger"), opts...)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	// Initialize rate limit store
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.RateLimit.Enabled {
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:         ledger,
		RateLimitStore: rateLimitStore,
		RateLimit:      cfg.RateLimit,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		AuditSvc: auditSvc,
		Metrics:  metricsHandler,
		Logger:   log,
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := auditSvc.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Audit queue not drained")
	}

	log.Info().Msg("Server exited")
}
