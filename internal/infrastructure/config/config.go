package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Credential store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR, default=127.0.0.1:8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`

	API        APIConfig
	Credential CredentialConfig
	Redis      RedisConfig
	Mongo      MongoConfig
	Audit      AuditConfig
}

type APIConfig struct {
	BaseURL string `env:"API_BASE_URL, required"`
	// Zero leaves backend calls without a deadline.
	Timeout time.Duration `env:"API_TIMEOUT, default=0s"`
}

type CredentialConfig struct {
	Store      string `env:"CREDENTIAL_STORE,      default=file"`
	File       string `env:"CREDENTIAL_FILE,       default=.console/credential"`
	Passphrase string `env:"CREDENTIAL_PASSPHRASE"`
}

type RedisConfig struct {
	Addr          string `env:"REDIS_ADDR,           default=localhost:6379"`
	Password      string `env:"REDIS_PASSWORD"`
	DB            int    `env:"REDIS_DB,             default=0"`
	CredentialKey string `env:"REDIS_CREDENTIAL_KEY, default=console:credential"`
}

// MongoConfig is optional: an empty URI disables the delivery audit trail.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=brickworks_console"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Process(context.Background(), nil)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process loads and validates configuration. A nil lookuper reads the OS
// environment.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Credential.Store {
	case StoreFile:
		if c.Credential.Passphrase == "" {
			return errors.New("CREDENTIAL_PASSPHRASE is required for the file credential store")
		}
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown CREDENTIAL_STORE %q", c.Credential.Store)
	}
	if c.API.Timeout < 0 {
		return errors.New("API_TIMEOUT must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the console runs in a local development setup.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
