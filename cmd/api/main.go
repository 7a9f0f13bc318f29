package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pushrelay/push-relay/internal/auth"
	"github.com/pushrelay/push-relay/internal/config"
	"github.com/pushrelay/push-relay/internal/handler"
	infraredis "github.com/pushrelay/push-relay/internal/infra/redis"
	"github.com/pushrelay/push-relay/internal/observability"
	"github.com/pushrelay/push-relay/internal/provider"
	"github.com/pushrelay/push-relay/internal/queue"
	"github.com/pushrelay/push-relay/internal/service"
	"github.com/pushrelay/push-relay/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	credential, err := auth.NewServiceCredential(cfg.ClientEmail, cfg.PrivateKey, nil)
	if err != nil {
		logger.Fatal("service credential rejected", zap.Error(err))
	}

	issuer, err := auth.NewJWTTokenIssuer(credential, cfg.OAuthTokenURL)
	if err != nil {
		logger.Fatal("token issuer initialization failed", zap.Error(err))
	}

	tokens, err := auth.NewCachingTokenSource(issuer)
	if err != nil {
		logger.Fatal("token cache initialization failed", zap.Error(err))
	}

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	pushProvider, err := provider.NewFCMProvider(cfg.FCMProjectID)
	if err != nil {
		logger.Fatal("fcm provider initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	dispatcher, err := service.NewDispatcher(
		tokens,
		pushProvider,
		limiter,
		cfg.DispatchConcurrency,
		cfg.SendMaxAttempts,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	publisher := queue.NewRabbitMQPublisher(mq)
	defer publisher.Close()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, rdb)
	if err := handler.RegisterTokenRoutes(app, tokens, logger, metrics); err != nil {
		logger.Fatal("failed to register token routes", zap.Error(err))
	}
	if err := handler.RegisterDispatchRoutes(app, dispatcher, publisher); err != nil {
		logger.Fatal("failed to register dispatch routes", zap.Error(err))
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutdown signal received")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("push-relay api started", zap.Int("port", cfg.Port))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
