package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is parsed once at process start and treated as immutable; it is
// passed into each component constructor rather than read ambiently.
type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":5000"`
	LogLevelName    string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DatabaseURL string `env:"DATABASE_URL"`

	SessionTTLDays   int    `env:"SESSION_TTL_DAYS" envDefault:"30"`
	OAuthRedirectURL string `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:5000/oauth/google"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	ProviderTimeout time.Duration `env:"OAUTH_HTTP_TIMEOUT" envDefault:"10s"`

	APIRateLimitRPM  int    `env:"API_RATE_LIMIT_RPM" envDefault:"120"`
	AuthRateLimitRPM int    `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`
	RedisAddr        string `env:"REDIS_ADDR"`

	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED" envDefault:"false"`
	OTELTracesEnabled         bool          `env:"OTEL_TRACES_ENABLED" envDefault:"false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED" envDefault:"false"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELServiceName           string        `env:"OTEL_SERVICE_NAME" envDefault:"session-auth-service"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT" envDefault:"dev"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL" envDefault:"30s"`
}

// Load reads .env (if present), parses the environment and validates the
// result. A load failure is fatal at startup, never retried.
func Load() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		recordConfigLoadEvent(context.Background(), cfg.OTELEnvironment, "failure", "parse")
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		recordConfigLoadEvent(context.Background(), cfg.OTELEnvironment, "failure", "validation")
		return nil, err
	}
	recordConfigLoadEvent(context.Background(), cfg.OTELEnvironment, "success", "none")
	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("validate config: required environment variables are not set: %v", missing)
	}
	if c.SessionTTLDays <= 0 {
		return fmt.Errorf("validate config: SESSION_TTL_DAYS must be positive, got %d", c.SessionTTLDays)
	}
	return nil
}

// GoogleEnabled and GitHubEnabled gate provider registration: a provider
// without credentials is simply absent, not misconfigured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevelName)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
