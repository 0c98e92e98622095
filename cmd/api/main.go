package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/glowmed/platform/internal/api/router"
	appconfig "github.com/glowmed/platform/internal/config"
	"github.com/glowmed/platform/internal/observability/metrics"
	"github.com/glowmed/platform/internal/patients"
	"github.com/glowmed/platform/internal/storage/scoped"
	"github.com/glowmed/platform/internal/tenants"
	"github.com/glowmed/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting glowmed API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(redisOptions(cfg))
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	tenancyMetrics := metrics.NewTenancyMetrics(reg)

	scopedDB := scoped.New(db, scoped.NewRegistry(patients.Entities()...), tenancyMetrics, logger)
	patientsRepo := patients.NewRepository(scopedDB)
	tenantsStore := tenants.NewStore(pool)

	r := router.New(&router.Config{
		Logger:          logger,
		PatientsHandler: patients.NewHandler(patientsRepo),
		PatientsAdmin:   patients.NewAdminHandler(patientsRepo),
		TenantsHandler:  tenants.NewHandler(tenantsStore),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AuthJWTSecret:   cfg.AuthJWTSecret,
		TenantHeader:    cfg.TenantHeader,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func redisOptions(cfg *appconfig.Config) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}
