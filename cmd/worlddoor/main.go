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

	"github.com/worlddoor/fulfillment/internal/activities"
	"github.com/worlddoor/fulfillment/internal/app"
	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/images"
	"github.com/worlddoor/fulfillment/internal/inspection"
	"github.com/worlddoor/fulfillment/internal/mockfallback"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/observability"
	"github.com/worlddoor/fulfillment/internal/orders"
	"github.com/worlddoor/fulfillment/internal/picking"
	"github.com/worlddoor/fulfillment/internal/platform/cache"
	"github.com/worlddoor/fulfillment/internal/platform/db"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/reports"
	"github.com/worlddoor/fulfillment/internal/returns"
	"github.com/worlddoor/fulfillment/internal/shared"
	"github.com/worlddoor/fulfillment/internal/shipping"
	"github.com/worlddoor/fulfillment/internal/transitions"
	"github.com/worlddoor/fulfillment/jobs"
	"github.com/worlddoor/fulfillment/migrations"
	"github.com/worlddoor/fulfillment/report"
)

const sessionCookie = "worlddoor_session"

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
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 20, MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, migrations.FS)
	if err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", slog.Any("files", applied))
	}

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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		_ = inspector.Close()
	}()

	metrics := observability.NewMetrics()
	sessions := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionTTL, cfg.IsProduction())
	activity := shared.NewActivityLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	notificationRepo := notifications.NewRepository(pool)
	fanOut := notifications.NewFanOut(notificationRepo, notificationRepo, jobClient, activity, logger)
	fanOut.SetMetrics(metrics)
	fanOut.SetBaseURL(cfg.PublicBaseURL)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, activity, logger)

	transitionService := transitions.NewService(transitions.NewRepository(pool), fanOut, activity, logger)
	transitionService.SetMetrics(metrics)

	orderService := orders.NewService(orders.NewRepository(pool), fanOut, activity, idempotency, logger)
	orderService.SetMetrics(metrics)

	pickingRepo := picking.NewRepository(pool)
	pickingService := picking.NewService(pickingRepo, activity, logger)
	shippingService := shipping.NewService(shipping.NewRepository(pool), pickingRepo, fanOut, activity, logger)

	var pdf reports.PDFRenderer
	if cfg.GotenbergURL != "" {
		pdf = report.NewClient(cfg.GotenbergURL)
	}
	reportService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL), pdf, activity, logger)
	reportService.SetSlowMovingDays(cfg.LongStorageDays)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		Metrics:        metrics,
		Ready: func(r *http.Request) error {
			return pool.Ping(r.Context())
		},
		AuthHandler:          auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool), sessions), sessions),
		ProductsHandler:      products.NewHandler(logger, productService, mockfallback.New(cfg.MockFallbackEnabled, logger)),
		TransitionsHandler:   transitions.NewHandler(logger, transitionService),
		OrdersHandler:        orders.NewHandler(logger, orderService),
		NotificationsHandler: notifications.NewHandler(logger, notifications.NewService(notificationRepo)),
		InspectionHandler:    inspection.NewHandler(logger, inspection.NewService(inspection.NewRepository(pool), activity, logger)),
		ImagesHandler:        images.NewHandler(logger, images.NewService(productRepo, images.NewLoader(cfg.UploadsDir), logger)),
		PickingHandler:       picking.NewHandler(logger, pickingService),
		ShippingHandler:      shipping.NewHandler(logger, shippingService),
		ReturnsHandler:       returns.NewHandler(logger, returns.NewService(returns.NewRepository(pool), fanOut, activity, logger)),
		ReportsHandler:       reports.NewHandler(logger, reportService),
		ActivitiesHandler:    activities.NewHandler(logger, activities.NewService(activities.NewRepository(pool))),
		JobHandler:           jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
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
