// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// データベースドライバ。
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port           int    `env:"PORT,default=8080"`
	DatabaseDriver string `env:"DATABASE_DRIVER,default=sqlite"`
	DatabaseURL    string `env:"DATABASE_URL,default=file:activation.db?_busy_timeout=5000"`
	AutoMigrate    bool   `env:"AUTO_MIGRATE,default=false"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	// アクセス制御
	AdminToken          string   `env:"ADMIN_TOKEN"`
	BootstrapAdminIPs   []string `env:"BOOTSTRAP_ADMIN_IPS"`
	TrustProxyHeaders   bool     `env:"TRUST_PROXY_HEADERS,default=false"`
	RequireProvisioning bool     `env:"REQUIRE_PROVISIONING,default=false"`

	// OpenTelemetry / Cloud Logging
	GoogleCloudProject string  `env:"GOOGLE_CLOUD_PROJECT"`
	OtelEnabled        bool    `env:"OTEL_ENABLED,default=false"`
	OtelEndpoint       string  `env:"OTEL_ENDPOINT,default=localhost:4317"`
	OtelInsecure       bool    `env:"OTEL_INSECURE,default=false"`
	OtelServiceName    string  `env:"OTEL_SERVICE_NAME,default=activation-key-service"`
	OtelSamplingRate   float64 `env:"OTEL_SAMPLING_RATE,default=1.0"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

// LoadFromMap はマップから設定を読み込む。テストやCLIのフラグ上書きに使う。
func LoadFromMap(env map[string]string) (*Config, error) {
	return load(context.Background(), envconfig.MapLookuper(env))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	for i, ip := range cfg.BootstrapAdminIPs {
		cfg.BootstrapAdminIPs[i] = strings.TrimSpace(ip)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel)
	}

	for _, ip := range c.BootstrapAdminIPs {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("BOOTSTRAP_ADMIN_IPS contains an invalid IP address: %q", ip)
		}
	}

	if c.OtelSamplingRate < 0 || c.OtelSamplingRate > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATE must be between 0 and 1, got %v", c.OtelSamplingRate)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	return nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返す。
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel は LOG_LEVEL を slog.Level に変換する。
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
