package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fleetline/backoffice/cmd/backoffice/cli"
	"github.com/fleetline/backoffice/internal/app"
	"github.com/fleetline/backoffice/internal/auth"
	"github.com/fleetline/backoffice/internal/menu"
	"github.com/fleetline/backoffice/internal/observability"
	"github.com/fleetline/backoffice/internal/platform/cache"
	"github.com/fleetline/backoffice/internal/platform/db"
	"github.com/fleetline/backoffice/internal/rbac"
	"github.com/fleetline/backoffice/internal/roles"
	"github.com/fleetline/backoffice/internal/shared"
	"github.com/fleetline/backoffice/internal/users"
	"github.com/fleetline/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 {
		if err := runCommand(context.Background(), os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()
	rbacMetrics := rbac.NewMetrics(metrics.Registerer())

	catalog := rbac.DefaultCatalog()
	roleStore := rbac.NewPGStore(dbpool)
	if err := roleStore.SyncCatalog(ctx, catalog); err != nil {
		logger.Error("sync permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	registry := rbac.NewRegistry(roleStore, catalog)

	fallback, err := loadFallback(cfg.RBACFallbackPath)
	if err != nil {
		logger.Error("load fallback table", slog.Any("error", err))
		os.Exit(1)
	}
	if unknown := fallback.UnknownKeys(catalog); len(unknown) > 0 {
		logger.Warn("fallback table references unknown permissions", slog.Any("keys", unknown))
	}

	fetcher := rbac.NewGuardedFetcher(rbac.FetcherFunc(registry.FetchRolePermissions), rbac.FetcherConfig{
		Timeout:     cfg.RBACFetchTimeout,
		MaxFailures: cfg.RBACBreakerFailures,
		OpenTimeout: cfg.RBACBreakerTimeout,
	}, logger, rbacMetrics)
	evaluator := rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog:  catalog,
		Fetcher:  fetcher,
		Fallback: fallback,
		Logger:   logger,
		Metrics:  rbacMetrics,
	})

	usersService := users.NewService(users.NewRepository(dbpool), registry)
	rbacMiddleware := rbac.Middleware{Evaluator: evaluator, Users: usersService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	rolesHandler := roles.NewHandler(logger, roles.NewService(registry, usersService), rbacMiddleware)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, catalog, rbacMiddleware)
	menuHandler := menu.NewHandler(menu.DefaultTree(), rbacMiddleware)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobClient, logger, rbacMiddleware.RequireAll(shared.PermRolesEdit))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		MenuHandler:        menuHandler,
		JobsHandler:        jobsHandler,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
		Health:             dbpool,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("permissions", catalog.Len()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func loadFallback(path string) (*rbac.FallbackTable, error) {
	if path == "" {
		return rbac.DefaultFallbackTable()
	}
	return rbac.LoadFallbackTable(path)
}

const usage = `usage:
  backoffice                          start the HTTP server
  backoffice jobs trigger <job> [arg] enqueue a job (rbac:fallback_drift [role])
  backoffice jobs stats               show default queue depth
  backoffice fallback validate [path] check a fallback table against the catalog`

func runCommand(ctx context.Context, args []string) error {
	switch args[0] {
	case "jobs":
		return runJobs(ctx, args[1:])
	case "fallback":
		if len(args) < 2 || args[1] != "validate" {
			return errors.New(usage)
		}
		path := ""
		if len(args) > 2 {
			path = args[2]
		}
		report, err := cli.ValidateFallback(path, rbac.DefaultCatalog())
		if err != nil {
			return err
		}
		cli.PrintFallbackReport(os.Stdout, report)
		if !report.Valid() {
			return errors.New("fallback table is invalid")
		}
		return nil
	default:
		return errors.New(usage)
	}
}

func runJobs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	jobsCLI, err := cli.NewJobsCLI(addr)
	if err != nil {
		return err
	}
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New(usage)
		}
		arg := ""
		if len(args) > 2 {
			arg = args[2]
		}
		info, err := jobsCLI.Trigger(ctx, args[1], arg)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	default:
		return errors.New(usage)
	}
}
