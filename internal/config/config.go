package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" envDefault:"1048576"`
}

type DatabaseConfig struct {
	Driver         string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL            string `env:"DATABASE_URL" envDefault:"file:kampuskuevent.db"`
	MaxConnections int    `env:"DATABASE_MAX_CONNECTIONS" envDefault:"10"`
	AutoMigrate    bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
}

// AuthConfig holds the shared admin secret. Either Token or TokenBcrypt
// must be set for admin routes to accept anything.
type AuthConfig struct {
	Token       string `env:"ADMIN_TOKEN"`
	TokenBcrypt string `env:"ADMIN_TOKEN_BCRYPT"`
	HeaderName  string `env:"ADMIN_HEADER" envDefault:"X-API-Key"`
}

// Configured reports whether an admin secret is available.
func (a AuthConfig) Configured() bool {
	return strings.TrimSpace(a.Token) != "" || strings.TrimSpace(a.TokenBcrypt) != ""
}

type CORSConfig struct {
	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowAllOrigins bool     `env:"-"`
}

type RateLimitConfig struct {
	PublicPerMinute int `env:"RATE_LIMIT_PUBLIC" envDefault:"0"`
	AdminPerMinute  int `env:"RATE_LIMIT_ADMIN" envDefault:"0"`
	// X-Forwarded-For is only honored from these networks.
	TrustedProxyCIDRs []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter     string  `env:"TRACING_EXPORTER" envDefault:"stdout"`
	ServiceName  string  `env:"TRACING_SERVICE_NAME" envDefault:"kampuskuevent"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment. Values from the given
// env files (or ./.env when none are given) fill variables that are not
// already set; a missing default .env is not an error.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.CORS.AllowedOrigins = normalizeOrigins(cfg.CORS.AllowedOrigins)
	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			cfg.CORS.AllowAllOrigins = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings every command depends on. The admin secret is
// checked separately by the serve command via AuthConfig.Configured.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	if c.Environment == "production" && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	if strings.TrimSpace(c.Auth.HeaderName) == "" {
		return fmt.Errorf("ADMIN_HEADER must not be empty")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
