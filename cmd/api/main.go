package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usmankhan045/blood-donation-notifier/internal/config"
	"github.com/usmankhan045/blood-donation-notifier/internal/events"
	"github.com/usmankhan045/blood-donation-notifier/internal/gateway"
	"github.com/usmankhan045/blood-donation-notifier/internal/handler"
	"github.com/usmankhan045/blood-donation-notifier/internal/infra/postgresql"
	"github.com/usmankhan045/blood-donation-notifier/internal/infra/postgresql/migrations"
	infraredis "github.com/usmankhan045/blood-donation-notifier/internal/infra/redis"
	"github.com/usmankhan045/blood-donation-notifier/internal/observability"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
	"github.com/usmankhan045/blood-donation-notifier/internal/service"
	"github.com/usmankhan045/blood-donation-notifier/internal/transport"
)

const (
	shutdownTimeout  = 10 * time.Second
	consumerPrefetch = 16
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := events.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	publisher := events.NewRabbitMQPublisher(broker)

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.GatewayRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	pushGateway, err := gateway.NewFCMGateway(cfg.FCMEndpoint, cfg.FCMServerKey, cfg.GatewayTimeout)
	if err != nil {
		logger.Fatal("fcm gateway initialization failed", zap.Error(err))
	}

	requestRepo := repository.NewGormRequestRepo(db)
	profileRepo := repository.NewGormProfileRepo(db)
	queueRepo := repository.NewGormQueueRepo(db)

	metrics := observability.NewMetrics()

	requestService, err := service.NewRequestService(requestRepo, publisher, logger)
	if err != nil {
		logger.Fatal("request service initialization failed", zap.Error(err))
	}

	testPushService, err := service.NewTestPushService(profileRepo, queueRepo, publisher, logger)
	if err != nil {
		logger.Fatal("test push service initialization failed", zap.Error(err))
	}
	testPushService.SetMetrics(metrics)

	dispatcher, err := service.NewDispatcher(
		requestRepo,
		profileRepo,
		queueRepo,
		events.NewRabbitMQConsumer(broker, consumerPrefetch, logger),
		publisher,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	if cfg.TagGatewayEnabled() {
		tagGateway, err := gateway.NewOneSignalGateway(
			cfg.OneSignalEndpoint,
			cfg.OneSignalAppID,
			cfg.OneSignalAPIKey,
			cfg.GatewayTimeout,
		)
		if err != nil {
			logger.Fatal("onesignal gateway initialization failed", zap.Error(err))
		}
		dispatcher.SetTagGateway(tagGateway)
		logger.Info("tag-audience broadcast enabled")
	}

	acceptance, err := service.NewAcceptanceNotifier(
		requestRepo,
		profileRepo,
		queueRepo,
		events.NewRabbitMQConsumer(broker, consumerPrefetch, logger),
		publisher,
		logger,
	)
	if err != nil {
		logger.Fatal("acceptance notifier initialization failed", zap.Error(err))
	}
	acceptance.SetMetrics(metrics)

	deliveryWorker, err := service.NewDeliveryWorker(
		queueRepo,
		events.NewRabbitMQConsumer(broker, consumerPrefetch, logger),
		pushGateway,
		rateLimiter,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("delivery worker initialization failed", zap.Error(err))
	}
	deliveryWorker.SetMetrics(metrics)

	expirySweeper, err := service.NewExpirySweeper(requestRepo, cfg.ExpirySweepEvery, logger)
	if err != nil {
		logger.Fatal("expiry sweeper initialization failed", zap.Error(err))
	}
	expirySweeper.SetMetrics(metrics)

	retentionSweeper, err := service.NewRetentionSweeper(queueRepo, cfg.RetentionSweepEvery, cfg.RetentionWindow, logger)
	if err != nil {
		logger.Fatal("retention sweeper initialization failed", zap.Error(err))
	}
	retentionSweeper.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterRequestRoutes(app, requestService, queueRepo, testPushService, cfg.JWTSecret); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return dispatcher.Start(groupCtx) })
	g.Go(func() error { return acceptance.Start(groupCtx) })
	g.Go(func() error { return deliveryWorker.Start(groupCtx) })
	g.Go(func() error { return expirySweeper.Start(groupCtx) })
	g.Go(func() error { return retentionSweeper.Start(groupCtx) })

	g.Go(func() error {
		logger.Info("api listening", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("api server stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}

	logger.Info("service stopped")
}
