package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN         string        `env:"DATABASE_DSN,required=true"`
	RabbitMQURL         string        `env:"RABBITMQ_URL,required=true"`
	RedisURL            string        `env:"REDIS_URL,required=true"`
	FCMEndpoint         string        `env:"FCM_ENDPOINT,required=true"`
	FCMServerKey        string        `env:"FCM_SERVER_KEY"`
	OneSignalEndpoint   string        `env:"ONESIGNAL_ENDPOINT"`
	OneSignalAppID      string        `env:"ONESIGNAL_APP_ID"`
	OneSignalAPIKey     string        `env:"ONESIGNAL_API_KEY"`
	JWTSecret           string        `env:"JWT_SECRET,required=true"`
	GatewayTimeout      time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
	GatewayRatePerSec   int           `env:"GATEWAY_RATE_PER_SEC,default=100"`
	WorkerConcurrency   int           `env:"WORKER_CONCURRENCY,default=8"`
	ExpirySweepEvery    time.Duration `env:"EXPIRY_SWEEP_INTERVAL,default=5m"`
	RetentionSweepEvery time.Duration `env:"RETENTION_SWEEP_INTERVAL,default=24h"`
	RetentionWindow     time.Duration `env:"RETENTION_WINDOW,default=24h"`
	APIPort             int           `env:"API_PORT,default=8080"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
}

// TagGatewayEnabled reports whether the tag-based audience gateway is configured.
func (c *Config) TagGatewayEnabled() bool {
	return c.OneSignalEndpoint != "" && c.OneSignalAppID != "" && c.OneSignalAPIKey != ""
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
