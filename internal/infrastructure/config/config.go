package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageFile   = "file"
)

type Config struct {
	Port     string `env:"PORT,      default=8090"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// MarkerSecret signs the session marker. Empty keeps the plain marker.
	MarkerSecret string `env:"MARKER_SECRET"`
	// PhoneRegion is the default region for phone numbers without a "+" prefix.
	PhoneRegion  string        `env:"PHONE_REGION,  default=IN"`
	PollInterval time.Duration `env:"POLL_INTERVAL, default=30s"`

	Portal  PortalConfig
	Storage StorageConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type PortalConfig struct {
	BaseURL string        `env:"PORTAL_API_BASE,     default=http://localhost:8080"`
	Timeout time.Duration `env:"PORTAL_HTTP_TIMEOUT, default=15s"`
}

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND, default=memory"`
	// File is the TOML path for the file backend; empty uses the user config dir.
	File string `env:"STORAGE_FILE"`
	// VaultKey wraps the selected backend with encryption when set.
	VaultKey string `env:"VAULT_KEY"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=loan_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Prefix   string `env:"REDIS_PREFIX,   default=portal:session"`
}

// IsProduction reports whether ENV selects production output (JSON logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process reads configuration from lookuper and validates the result.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	switch cfg.Storage.Backend {
	case StorageMemory, StorageRedis, StorageMongo, StorageFile:
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND: unknown backend %q", cfg.Storage.Backend)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL: must be positive, got %s", cfg.PollInterval)
	}
	return &cfg, nil
}
