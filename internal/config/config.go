package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	ClientEmail         string `env:"CLIENT_EMAIL,required=true"`
	PrivateKey          string `env:"PRIVATE_KEY,required=true"`
	FCMProjectID        string `env:"FCM_PROJECT_ID,required=true"`
	OAuthTokenURL       string `env:"OAUTH_TOKEN_URL,default=https://oauth2.googleapis.com/token"`
	RedisURL            string `env:"REDIS_URL,required=true"`
	RabbitMQURL         string `env:"RABBITMQ_URL,required=true"`
	RateLimitPerSec     int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	DispatchConcurrency int    `env:"DISPATCH_CONCURRENCY,default=16"`
	SendMaxAttempts     int    `env:"SEND_MAX_ATTEMPTS,default=3"`
	WorkerConcurrency   int    `env:"WORKER_CONCURRENCY,default=4"`
	Port                int    `env:"PORT,default=3000"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
