package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fleetline/backoffice/internal/app"
	jobmetrics "github.com/fleetline/backoffice/internal/jobs"
	"github.com/fleetline/backoffice/internal/platform/db"
	"github.com/fleetline/backoffice/internal/rbac"
	"github.com/fleetline/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	catalog := rbac.DefaultCatalog()
	registry := rbac.NewRegistry(rbac.NewPGStore(pool), catalog)

	var fallback *rbac.FallbackTable
	if cfg.RBACFallbackPath != "" {
		fallback, err = rbac.LoadFallbackTable(cfg.RBACFallbackPath)
	} else {
		fallback, err = rbac.DefaultFallbackTable()
	}
	if err != nil {
		logger.Error("load fallback table", slog.Any("error", err))
		os.Exit(1)
	}

	driftJob := &jobs.FallbackDriftJob{
		Roles:    registry,
		Fallback: fallback,
		Catalog:  catalog,
		Logger:   logger,
		Metrics:  rbac.NewMetrics(prometheus.DefaultRegisterer),
		Jobs:     jobmetrics.NewMetrics(prometheus.DefaultRegisterer),
	}

	driftTask, err := jobs.NewFallbackDriftTask("")
	if err != nil {
		logger.Error("build drift task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRBACFallbackDrift, Handler: driftJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DriftAuditCron, Task: driftTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
