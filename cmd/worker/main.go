package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worlddoor/fulfillment/internal/app"
	jobmetrics "github.com/worlddoor/fulfillment/internal/jobs"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/platform/db"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
	"github.com/worlddoor/fulfillment/jobs"
)

// longStorageCron runs the scan daily at 02:00 UTC.
const longStorageCron = "0 2 * * *"

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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 5})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)
	activity := shared.NewActivityLogger(pool)
	notificationRepo := notifications.NewRepository(pool)
	fanOut := notifications.NewFanOut(notificationRepo, notificationRepo, jobClient, activity, logger)
	fanOut.SetBaseURL(cfg.PublicBaseURL)

	mailJob := jobs.NewMailJob(jobs.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom), logger, metrics)
	longStorageJob := jobs.NewLongStorageJob(products.NewRepository(pool), fanOut, activity, logger, metrics, cfg.LongStorageDays)

	longStorageTask, err := jobs.NewLongStorageScanTask(0)
	if err != nil {
		logger.Error("build long storage task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskLongStorageScan, Handler: longStorageJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: longStorageCron, Task: longStorageTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			_ = metricsServer.Close()
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
