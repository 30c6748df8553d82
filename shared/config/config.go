package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = 8080
	defaultPageStore        = StoreSQLite
	defaultSQLitePath       = "./spacetraveling.db"
	defaultRedisAddr        = "localhost:6379"
	defaultBuildConcurrency = 4
	defaultLogLevel         = "info"
)

// Page store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is read from the environment. Values in a .env file in the working
// directory are loaded first and never override variables already set.
type Config struct {
	PrismicEndpoint    string
	PrismicAccessToken string

	SiteURL    string
	SiteLocale string
	Port       int

	PageStore     string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WebhookSecret    string
	BuildConcurrency int

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads .env files if present.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %v: %w", existing, err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		PrismicEndpoint:    os.Getenv("PRISMIC_API_ENDPOINT"),
		PrismicAccessToken: os.Getenv("PRISMIC_ACCESS_TOKEN"),
		SiteURL:            os.Getenv("SITE_URL"),
		SiteLocale:         os.Getenv("SITE_LOCALE"),
		PageStore:          getEnv("PAGE_STORE", defaultPageStore),
		SQLitePath:         getEnv("SQLITE_DB_PATH", defaultSQLitePath),
		RedisAddr:          getEnv("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		LogLevel:           getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:          os.Getenv("LOG_FORMAT"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", defaultPort); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BuildConcurrency, err = getEnvInt("BUILD_CONCURRENCY", defaultBuildConcurrency); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.PrismicEndpoint == "" {
		return fmt.Errorf("PRISMIC_API_ENDPOINT is not set")
	}

	switch c.PageStore {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("PAGE_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, c.PageStore)
	}

	if c.BuildConcurrency < 1 {
		return fmt.Errorf("BUILD_CONCURRENCY must be at least 1, got %d", c.BuildConcurrency)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
