package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Store    StoreConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Coupon   CouponConfig
	Persist  PersistConfig
}

// ServerConfig holds the local HTTP shell configuration.
type ServerConfig struct {
	Host string
	Port int
}

// UpstreamConfig holds the storefront REST API connection details.
type UpstreamConfig struct {
	BaseURL      string
	SessionToken string
	Timeout      int // seconds
}

// StoreConfig selects and configures the persistent store adapter.
type StoreConfig struct {
	Backend       string // "memory", "file", "redis" or "postgres"
	FileDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DatabaseConfig holds PostgreSQL settings, used when Store.Backend is "postgres".
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration for the local shell.
type AuthConfig struct {
	APIKey string
}

// CouponConfig configures the promo-code validation collaborator.
type CouponConfig struct {
	Enabled       bool
	FilePaths     []string
	MinMatchCount int
	S3Enabled     bool
	S3Bucket      string
	S3Region      string
	S3Prefix      string
}

// PersistConfig configures the debounced cart snapshot writer.
type PersistConfig struct {
	Key        string
	DebounceMS int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "127.0.0.1"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Upstream: UpstreamConfig{
			BaseURL:      getEnv("UPSTREAM_BASE_URL", ""),
			SessionToken: getEnv("UPSTREAM_SESSION_TOKEN", ""),
			Timeout:      getEnvAsInt("UPSTREAM_TIMEOUT", 15),
		},
		Store: StoreConfig{
			Backend:       getEnv("STORE_BACKEND", "file"),
			FileDir:       getEnv("STORE_FILE_DIR", "data/cart"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "cartsync"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Coupon: CouponConfig{
			Enabled:       getEnvAsBool("COUPON_ENABLED", false),
			FilePaths:     getEnvAsList("COUPON_FILES", "data/coupons/couponbase1.gz,data/coupons/couponbase2.gz,data/coupons/couponbase3.gz"),
			MinMatchCount: getEnvAsInt("COUPON_MIN_MATCH_COUNT", 2),
			S3Enabled:     getEnvAsBool("S3_ENABLED", false),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3Prefix:      getEnv("S3_PREFIX", "coupons/"),
		},
		Persist: PersistConfig{
			Key:        getEnv("PERSIST_KEY", "cart"),
			DebounceMS: getEnvAsInt("PERSIST_DEBOUNCE_MS", 500),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}

	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("invalid upstream base URL: %s", c.Upstream.BaseURL)
	}

	if c.Upstream.Timeout < 1 {
		return fmt.Errorf("upstream timeout must be at least 1 second")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	switch c.Store.Backend {
	case "memory":
	case "file":
		if c.Store.FileDir == "" {
			return fmt.Errorf("store file directory is required for the file backend")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres backend")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required for the postgres backend")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres backend")
		}
		if c.Database.MinConnections < 1 {
			return fmt.Errorf("database min connections must be at least 1")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory, file, redis or postgres)", c.Store.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Coupon.Enabled {
		if c.Coupon.MinMatchCount < 1 {
			return fmt.Errorf("coupon min match count must be at least 1")
		}
		if c.Coupon.S3Enabled {
			if c.Coupon.S3Bucket == "" {
				return fmt.Errorf("S3 bucket is required when S3 is enabled")
			}
			if c.Coupon.S3Region == "" {
				return fmt.Errorf("S3 region is required when S3 is enabled")
			}
		} else if len(c.Coupon.FilePaths) == 0 {
			return fmt.Errorf("at least one coupon file is required when coupons are enabled")
		}
	}

	if c.Persist.Key == "" {
		return fmt.Errorf("persist key is required")
	}

	if c.Persist.DebounceMS < 0 {
		return fmt.Errorf("persist debounce cannot be negative")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a string slice.
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
