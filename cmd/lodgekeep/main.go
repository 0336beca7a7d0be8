package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lodgekeep/lodgekeep/internal/app"
	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/booking"
	"github.com/lodgekeep/lodgekeep/internal/catalog"
	"github.com/lodgekeep/lodgekeep/internal/dues"
	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/payments"
	"github.com/lodgekeep/lodgekeep/internal/platform/cache"
	"github.com/lodgekeep/lodgekeep/internal/platform/db"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, continuing without locks and digest", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	gate := rbac.NewService(pool, logger)
	rbacMW := rbac.Middleware{Gate: gate, Logger: logger}

	formatter := money.NewFormatter(cfg.DisplayLocale, cfg.DisplayCurrency)

	catalogRepo := catalog.NewRepository(pool)

	bookingRepo := booking.NewRepository(pool)
	bookingService := booking.NewService(bookingRepo, catalogRepo, gate, logger)
	bookingHandler := booking.NewHandler(logger, bookingService, rbacMW)

	billingRepo := billing.NewRepository(pool)
	locker := billing.NewLocker(redisClient, cfg.InvoiceLockTTL)
	billingService := billing.NewService(billingRepo, gate, locker, logger)
	billingHandler := billing.NewHandler(logger, billingService, rbacMW, formatter)

	merger := payments.NewMerger(
		payments.NewPrimaryRepository(pool),
		payments.NewLegacyRepository(pool),
		logger,
	)
	paymentsHandler := payments.NewHandler(logger, merger, rbacMW)

	duesService := dues.NewService(billingRepo, redisClient, cfg.DuesDigestTTL, logger)

	// The refresh endpoint enqueues warmups through the worker queue; without
	// redis there is no queue, and the handler degrades to summaries only.
	var warmer dues.DigestWarmer
	if redisClient != nil {
		jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		warmer = jobsClient
	}
	duesHandler := dues.NewHandler(logger, duesService, rbacMW, formatter, warmer)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		BookingHandler:  bookingHandler,
		BillingHandler:  billingHandler,
		PaymentsHandler: paymentsHandler,
		DuesHandler:     duesHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
