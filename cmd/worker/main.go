package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pushrelay/push-relay/internal/auth"
	"github.com/pushrelay/push-relay/internal/config"
	infraredis "github.com/pushrelay/push-relay/internal/infra/redis"
	"github.com/pushrelay/push-relay/internal/observability"
	"github.com/pushrelay/push-relay/internal/provider"
	"github.com/pushrelay/push-relay/internal/queue"
	"github.com/pushrelay/push-relay/internal/service"
	"go.uber.org/zap"
)

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
	dispatcher.SetMetrics(observability.NewMetrics())

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}

	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)
	defer consumer.Close()

	worker, err := service.NewWorker(consumer, dispatcher, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("push-relay worker started", zap.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Start(ctx); err != nil {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}
	logger.Info("push-relay worker stopped")
}
