// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :9229).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DataDir is the directory for the file storage backend and the generated signing key.
	DataDir string `mapstructure:"DATA_DIR"`
	// StorageBackend selects the pool-document store: "file", "postgres", or "redis".
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	// DatabaseURL is the Postgres DSN; required when STORAGE_BACKEND=postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis URL; required when STORAGE_BACKEND=redis.
	RedisURL string `mapstructure:"REDIS_URL"`
	// IssuerBaseURL is the external base URL used as the JWT iss prefix (e.g. http://localhost:9229).
	IssuerBaseURL string `mapstructure:"ISSUER_BASE_URL"`
	// JWTPrivateKey is the PEM-encoded RSA signing key or a path to it; generated under DataDir when empty.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// TriggerConfig is the path to the JSON trigger-binding document; empty disables triggers.
	TriggerConfig string `mapstructure:"TRIGGER_CONFIG"`
	// TriggerTimeout bounds a single trigger invocation (e.g. "5s").
	TriggerTimeout string `mapstructure:"TRIGGER_TIMEOUT"`
	// OTPDeterministic makes every one-time code "999999"; intended for tests and local SDK work.
	OTPDeterministic bool `mapstructure:"OTP_DETERMINISTIC"`
	// MessageLog is the JSON-lines file recorded deliveries are appended to; empty disables the file.
	MessageLog string `mapstructure:"MESSAGE_LOG"`
	// OTLPEndpoint is the OTLP gRPC collector address (e.g. localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// DevRoutes exposes GET /dev/otp. Must not be true when Env is production.
	DevRoutes bool `mapstructure:"DEV_ROUTES"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// SeedPoolID pre-creates a pool with this id at startup; empty skips seeding.
	SeedPoolID string `mapstructure:"SEED_POOL_ID"`
	// SeedClientID pre-creates an app client in the seeded pool; empty skips.
	SeedClientID string `mapstructure:"SEED_CLIENT_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":9229")
	v.SetDefault("DATA_DIR", ".cognito")
	v.SetDefault("STORAGE_BACKEND", "file")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ISSUER_BASE_URL", "http://localhost:9229")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("TRIGGER_CONFIG", "")
	v.SetDefault("TRIGGER_TIMEOUT", "5s")
	v.SetDefault("OTP_DETERMINISTIC", true)
	v.SetDefault("MESSAGE_LOG", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("DEV_ROUTES", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SEED_POOL_ID", "")
	v.SetDefault("SEED_CLIENT_ID", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.StorageBackend {
	case "file":
		if cfg.DataDir == "" {
			return nil, errors.New("config: DATA_DIR must be set when STORAGE_BACKEND=file")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when STORAGE_BACKEND=postgres")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("config: REDIS_URL must be set when STORAGE_BACKEND=redis")
		}
	default:
		return nil, errors.New("config: STORAGE_BACKEND must be file, postgres, or redis")
	}

	if cfg.DevRoutes && cfg.Env == "production" {
		return nil, errors.New("config: DEV_ROUTES must not be true when APP_ENV=production")
	}
	if cfg.SeedClientID != "" && cfg.SeedPoolID == "" {
		return nil, errors.New("config: SEED_CLIENT_ID requires SEED_POOL_ID")
	}

	return &cfg, nil
}

// TriggerTimeoutDuration parses TriggerTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) TriggerTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.TriggerTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
