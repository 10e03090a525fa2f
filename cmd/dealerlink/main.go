package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dealerlink/dealerlink/internal/app"
	"github.com/dealerlink/dealerlink/internal/auth"
	"github.com/dealerlink/dealerlink/internal/dealers"
	"github.com/dealerlink/dealerlink/internal/observability"
	"github.com/dealerlink/dealerlink/internal/platform/cache"
	"github.com/dealerlink/dealerlink/internal/platform/db"
	"github.com/dealerlink/dealerlink/internal/rbac"
	"github.com/dealerlink/dealerlink/internal/registration"
	"github.com/dealerlink/dealerlink/internal/shared"
	"github.com/dealerlink/dealerlink/internal/users"
	"github.com/dealerlink/dealerlink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
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

	matrix := rbac.NewDefaultMatrix()
	if err := matrix.Validate(); err != nil {
		logger.Error("permission matrix", slog.Any("error", err))
		os.Exit(1)
	}
	evaluator := rbac.NewEvaluator(matrix)
	principalStore := rbac.NewStore(dbpool, redisClient, cfg.PrincipalCacheTTL)
	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Evaluator: evaluator, Logger: logger, Observer: metrics}
	rbacHandler := rbac.NewHandler(logger, evaluator, rbacMiddleware)

	auditLogger := shared.NewAuditLogger(dbpool, logger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	sessions := auth.NewSessionRegistry(redisClient)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens, sessions, auditLogger)
	authHandler := auth.NewHandler(logger, authService, evaluator)
	authMiddleware := auth.Middleware{
		Tokens:   tokens,
		Sessions: sessions,
		States:   principalStore,
		Logger:   logger,
	}

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(queueClient)

	dealerRepo := dealers.NewRepository(dbpool)
	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, auditLogger, principalStore)
	userHandler := users.NewHandler(logger, userService)

	registrationRepo := registration.NewRepository(dbpool)
	registrationService := registration.NewService(
		registrationRepo,
		dealerRepo,
		userRepo,
		db.PoolRunner{Pool: dbpool},
		matrix,
		notifier,
		logger,
	)
	registrationHandler := registration.NewHandler(logger, registrationService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		RBACHandler:         rbacHandler,
		RBACMiddleware:      rbacMiddleware,
		RegistrationHandler: registrationHandler,
		UsersHandler:        userHandler,
		JobsHandler:         jobsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
