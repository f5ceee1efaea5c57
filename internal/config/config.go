// Package config loads the service configuration from the environment.
// A .env file, when present, is read first and never overrides variables
// that are already set.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	// --- Application ---
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Port     string `envconfig:"PORT" default:"8080"`
	// Comma separated; empty allows any origin.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// --- Storage ---
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"kanso_user"`
	DBPassword     string `envconfig:"DB_PASSWORD" default:"secret"`
	DBName         string `envconfig:"DB_NAME" default:"kanso_db"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// --- Redis (empty host disables cache and rate limiting) ---
	RedisHost     string `envconfig:"REDIS_HOST"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Auth ---
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"kanso-habit-stats"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Stats ---
	DefaultTimezone string        `envconfig:"DEFAULT_TIMEZONE" default:"Europe/Moscow"`
	StatsCacheTTL   time.Duration `envconfig:"STATS_CACHE_TTL" default:"30m"`
	WorkerQueueSize int           `envconfig:"WORKER_QUEUE_SIZE" default:"100"`

	// --- Reminders ---
	TelegramBotToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIServer string `envconfig:"TELEGRAM_API_SERVER"`
	RemindersEnabled  bool   `envconfig:"REMINDERS_ENABLED" default:"true"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) Validate() error {
	if c.StorageDriver != StorageMemory && c.StorageDriver != StoragePostgres {
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	if c.WorkerQueueSize <= 0 {
		return errors.New("WORKER_QUEUE_SIZE must be > 0")
	}
	if c.StatsCacheTTL <= 0 {
		return errors.New("STATS_CACHE_TTL must be > 0")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err)
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be > 0")
	}
	return nil
}

// Load reads the optional env files, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine; real deployments use plain env vars.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
