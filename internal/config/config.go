package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
)

// Config holds the whole application configuration.
// It is populated from environment variables (see Load).
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Gateway GatewayConfig
	Worker  WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	// RunMigrations applies pending SQL migrations at API startup
	RunMigrations bool
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// =====================================================
// GATEWAY CONFIGURATION
// =====================================================

type GatewayConfig struct {
	APIURL     string        // e.g. https://api.vnpay.com/v1
	APIVersion string        // sent as Vnpay-Version header
	Timeout    time.Duration // per request
}

// =====================================================
// WORKER CONFIGURATION
// =====================================================

type WorkerConfig struct {
	Concurrency        int
	FeedbackRetryCron  string
	FeedbackRetryLimit int
	CallbackTimeout    time.Duration
	CallbackRetryCron  string
	CallbackRetryLimit int
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:          getEnv("APP_NAME", "Vnpay Acquirer API"),
			Environment:   getEnv("APP_ENV", "development"),
			Port:          getEnv("APP_PORT", "8080"),
			Version:       getEnv("APP_VERSION", "1.0.0"),
			RunMigrations: getEnvBool("APP_RUN_MIGRATIONS", true),
			MigrationsDir: getEnv("APP_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		Gateway: GatewayConfig{
			APIURL:     getEnv("VNPAY_API_URL", "https://api.vnpay.com/v1"),
			APIVersion: getEnv("VNPAY_API_VERSION", "2016-03-07"),
			Timeout:    getEnvDuration("VNPAY_TIMEOUT", 30*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency:        getEnvInt("WORKER_CONCURRENCY", 10),
			FeedbackRetryCron:  getEnv("WORKER_FEEDBACK_RETRY_CRON", "*/10 * * * *"),
			FeedbackRetryLimit: getEnvInt("WORKER_FEEDBACK_RETRY_LIMIT", 100),
			CallbackTimeout:    getEnvDuration("WORKER_CALLBACK_TIMEOUT", 15*time.Second),
			CallbackRetryCron:  getEnv("WORKER_CALLBACK_RETRY_CRON", "*/5 * * * *"),
			CallbackRetryLimit: getEnvInt("WORKER_CALLBACK_RETRY_LIMIT", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is usable
func (c *Config) Validate() error {
	if c.Gateway.APIURL == "" {
		return fmt.Errorf("VNPAY_API_URL must not be empty")
	}
	if c.Gateway.APIVersion == "" {
		return fmt.Errorf("VNPAY_API_VERSION must not be empty")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("VNPAY_TIMEOUT must be positive")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}

	if c.App.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := cast.ToIntE(os.Getenv(key))
	if os.Getenv(key) == "" || err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := cast.ToBoolE(os.Getenv(key))
	if os.Getenv(key) == "" || err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := cast.ToDurationE(os.Getenv(key))
	if os.Getenv(key) == "" || err != nil {
		return defaultValue
	}
	return value
}
