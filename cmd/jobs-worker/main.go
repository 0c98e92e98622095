package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/glowmed/platform/internal/config"
	"github.com/glowmed/platform/internal/jobs"
	"github.com/glowmed/platform/internal/observability/metrics"
	"github.com/glowmed/platform/internal/patients"
	"github.com/glowmed/platform/internal/storage/scoped"
	"github.com/glowmed/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("jobs worker requires DATABASE_URL")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	defer func() { _ = rdb.Close() }()

	tenancyMetrics := metrics.NewTenancyMetrics(nil)
	scopedDB := scoped.New(db, scoped.NewRegistry(patients.Entities()...), tenancyMetrics, logger)
	repo := patients.NewRepository(scopedDB)

	queue := jobs.NewQueue(rdb, cfg.JobQueueKey, logger)
	worker := jobs.NewWorker(queue, logger).
		WithConcurrency(cfg.WorkerCount).
		WithPollInterval(cfg.JobPollInterval).
		WithMetrics(tenancyMetrics)

	// The handler reads through the scoped layer; the guard has already
	// established the job's tenant, so the listing is filtered to it.
	worker.Register("patients.refresh", func(ctx context.Context, payload json.RawMessage) error {
		out, err := repo.List(ctx)
		if err != nil {
			return err
		}
		logger.WithTenant(ctx).Info("patient roster refreshed", "count", len(out))
		return nil
	})

	go worker.Run(ctx)
	logger.Info("jobs worker started", "concurrency", cfg.WorkerCount, "queue", cfg.JobQueueKey)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("jobs worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
