package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Hub tuning. The heartbeat interval bounds how long a dead peer can
	// occupy room state (at most two intervals).
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" default:"30s"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE" default:"16"`

	InviteTTL time.Duration `env:"INVITE_TTL" default:"72h"`

	// Optional external playlist provider. When the URL is empty the
	// playlist endpoint serves local track lists only.
	PlaylistProviderURL   string `env:"PLAYLIST_PROVIDER_URL"`
	PlaylistProviderToken string `env:"PLAYLIST_PROVIDER_TOKEN"`

	MaxWebSocketConnections int           `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int           `env:"MAX_CONNECTIONS_PER_IP" default:"32"`
	ConnectionRatePerIP     int           `env:"CONNECTION_RATE_PER_IP" default:"5"`
	ConnectionBurstPerIP    int           `env:"CONNECTION_BURST_PER_IP" default:"10"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	if cfg.HeartbeatInterval < time.Second {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be at least 1s, got %s", cfg.HeartbeatInterval)
	}
	if cfg.SendBufferSize < 1 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be at least 1, got %d", cfg.SendBufferSize)
	}
	if cfg.InviteTTL < time.Minute {
		return fmt.Errorf("INVITE_TTL must be at least 1m, got %s", cfg.InviteTTL)
	}

	if cfg.AppEnv == "production" {
		lower := strings.ToLower(cfg.DatabaseURL)
		for _, mode := range []string{"disable", "allow"} {
			if strings.Contains(lower, "sslmode="+mode) {
				return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
			}
		}
	}

	return nil
}
