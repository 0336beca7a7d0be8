package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/lodgekeep/lodgekeep/internal/app"
	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/dues"
	"github.com/lodgekeep/lodgekeep/internal/platform/cache"
	"github.com/lodgekeep/lodgekeep/internal/platform/db"
	"github.com/lodgekeep/lodgekeep/internal/shared"
	"github.com/lodgekeep/lodgekeep/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	billingRepo := billing.NewRepository(pool)
	duesService := dues.NewService(billingRepo, redisClient, cfg.DuesDigestTTL, logger)

	overdueJob := jobs.NewOverdueRefreshJob(pool, logger)
	warmupJob := jobs.NewDuesWarmupJob(duesService, logger)

	warmupTask, err := jobs.NewDuesWarmupTask(shared.ScopeGlobal)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOverdueRefresh, Handler: overdueJob.Handle},
			{Type: jobs.TaskDuesDigestWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "5 0 * * *", Task: jobs.NewOverdueRefreshTask()},
			{Spec: "*/15 * * * *", Task: warmupTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}
