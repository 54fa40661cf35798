// Package config maps environment variables onto a typed Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// StorageMongo and StorageMemory are the accepted STORAGE_DRIVER values.
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr        string `env:"HTTP_ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL"`

	StorageDriver    string        `env:"STORAGE_DRIVER" envDefault:"mongo"`
	MongoURI         string        `env:"MONGO_URI" envDefault:"mongodb://mongo:27017"`
	MongoDatabase    string        `env:"MONGO_DB" envDefault:"store-catalog"`
	StoreCollection  string        `env:"STORE_COLLECTION" envDefault:"stores"`
	ReviewCollection string        `env:"REVIEW_COLLECTION" envDefault:"reviews"`
	Timeout          time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`

	// RedisURL enables the shared slug lock. Empty keeps the lock in-process.
	RedisURL    string        `env:"REDIS_URL"`
	SlugLockTTL time.Duration `env:"SLUG_LOCK_TTL" envDefault:"5s"`

	PageSize        int     `env:"STORE_PAGE_SIZE" envDefault:"4"`
	SearchRateLimit float64 `env:"SEARCH_RATE_LIMIT_RPS" envDefault:"5"`
	SearchRateBurst int     `env:"SEARCH_RATE_LIMIT_BURST" envDefault:"10"`

	AllowedOrigins []string `env:"API_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	JWTSecret   string `env:"AUTH_JWT_SECRET"`
	JWTIssuer   string `env:"AUTH_JWT_ISSUER" envDefault:"store-catalog-auth"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE"`
}

// Load reads environment variables and returns a fully populated Config.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins, []string{"*"})
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// JWTConfigs returns the accepted token issuers. Empty when no secret is set.
func (c Config) JWTConfigs() []JWTConfig {
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == "" {
		return nil
	}
	return []JWTConfig{{Issuer: strings.TrimSpace(c.JWTIssuer), Secret: []byte(secret)}}
}

func (c Config) validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageMongo, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongo, StorageMemory, c.StorageDriver))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("STORE_PAGE_SIZE must be positive"))
	}
	if c.SearchRateLimit <= 0 || c.SearchRateBurst <= 0 {
		errs = append(errs, errors.New("SEARCH_RATE_LIMIT_RPS and SEARCH_RATE_LIMIT_BURST must be positive"))
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be configured in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server is running in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func cleanList(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
