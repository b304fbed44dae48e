// Package config provides application configuration management.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Security  SecurityConfig
	Time      TimeConfig
	Expiry    ExpiryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// StorageConfig selects and configures the medium behind the stores.
type StorageConfig struct {
	Backend         string
	Dir             string
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables the
// request rate limiter.
type RedisConfig struct {
	URL          string
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	SecretKey          []byte
	AdminToken         string
	Environment        string
	LogLevel           string
	CleanupInterval    time.Duration
	MaxRequestBodySize int64
}

// TimeConfig holds the civil clock offset.
type TimeConfig struct {
	UTCOffset time.Duration
}

// ExpiryConfig holds entry lifetime settings.
type ExpiryConfig struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
	Grace      time.Duration
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}

	cfg.Server = ServerConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		ReadTimeout:    v.GetDuration("server.read_timeout"),
		WriteTimeout:   v.GetDuration("server.write_timeout"),
		IdleTimeout:    v.GetDuration("server.idle_timeout"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
	}

	cfg.Storage = StorageConfig{
		Backend:         strings.ToLower(v.GetString("storage.backend")),
		Dir:             v.GetString("storage.dir"),
		DatabaseURL:     v.GetString("storage.database_url"),
		MaxOpenConns:    v.GetInt("storage.max_open_conns"),
		MaxIdleConns:    v.GetInt("storage.max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("storage.conn_max_lifetime"),
		ConnMaxIdleTime: v.GetDuration("storage.conn_max_idle_time"),
	}

	cfg.Redis = RedisConfig{
		URL:          v.GetString("redis.url"),
		MaxRetries:   v.GetInt("redis.max_retries"),
		PoolSize:     v.GetInt("redis.pool_size"),
		MinIdleConns: v.GetInt("redis.min_idle_conns"),
	}

	environment := v.GetString("env")
	secretKey, err := loadSecretKey(v.GetString("security.secret_key"), environment)
	if err != nil {
		return nil, err
	}

	cfg.Security = SecurityConfig{
		SecretKey:          secretKey,
		AdminToken:         v.GetString("security.admin_token"),
		Environment:        environment,
		LogLevel:           v.GetString("log.level"),
		CleanupInterval:    v.GetDuration("security.cleanup_interval"),
		MaxRequestBodySize: v.GetInt64("security.max_request_body_size"),
	}

	cfg.Time = TimeConfig{
		UTCOffset: v.GetDuration("time.utc_offset"),
	}

	cfg.Expiry = ExpiryConfig{
		DefaultTTL: v.GetDuration("expiry.default_ttl"),
		MaxTTL:     v.GetDuration("expiry.max_ttl"),
		Grace:      v.GetDuration("expiry.grace"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("rate_limit.requests"),
		Window:   v.GetDuration("rate_limit.window"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSecretKey decodes the base64 key used to hash entry secrets.
func loadSecretKey(encoded, environment string) ([]byte, error) {
	if encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid SECURITY_SECRET_KEY: must be valid base64: %w", err)
		}
		if len(key) < 32 {
			return nil, fmt.Errorf("invalid SECURITY_SECRET_KEY: must be at least 32 bytes (got %d bytes). Generate with: openssl rand -base64 32", len(key))
		}
		return key, nil
	}

	if environment != "development" {
		return nil, nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate development secret key: %w", err)
	}
	slog.Warn("SECURITY_SECRET_KEY not set - using auto-generated key for development. Stored secrets will not verify across restarts!")
	return key, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.max_open_conns", 10)
	v.SetDefault("storage.max_idle_conns", 2)
	v.SetDefault("storage.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("storage.conn_max_idle_time", 5*time.Minute)

	// Redis defaults
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	// Security defaults
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.admin_token", "")
	v.SetDefault("security.cleanup_interval", 5*time.Minute)
	v.SetDefault("security.max_request_body_size", 1*1024*1024) // 1MB

	// Time and expiry defaults
	v.SetDefault("time.utc_offset", 8*time.Hour)
	v.SetDefault("expiry.default_ttl", 24*time.Hour)
	v.SetDefault("expiry.max_ttl", 30*24*time.Hour)
	v.SetDefault("expiry.grace", 1*time.Hour)

	// Rate limiting defaults
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 60*time.Second)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage directory is required for the file backend")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage database URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)", c.Storage.Backend, BackendFile, BackendPostgres)
	}

	if c.Expiry.DefaultTTL <= 0 {
		return fmt.Errorf("expiry default TTL must be positive")
	}
	if c.Expiry.MaxTTL < c.Expiry.DefaultTTL {
		return fmt.Errorf("expiry max TTL (%s) is shorter than the default TTL (%s)", c.Expiry.MaxTTL, c.Expiry.DefaultTTL)
	}
	if c.Expiry.Grace <= 0 {
		return fmt.Errorf("expiry grace must be positive")
	}
	if c.Time.UTCOffset < -14*time.Hour || c.Time.UTCOffset > 14*time.Hour {
		return fmt.Errorf("time UTC offset %s is out of range", c.Time.UTCOffset)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}
	if c.Security.CleanupInterval <= 0 {
		return fmt.Errorf("security cleanup interval must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	if len(c.Security.SecretKey) == 0 {
		return fmt.Errorf("SECURITY_SECRET_KEY is required outside development. Generate with: openssl rand -base64 32")
	}
	if c.IsProduction() && c.Security.AdminToken == "" {
		return fmt.Errorf("SECURITY_ADMIN_TOKEN is required in production")
	}

	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Security.Environment == "production"
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Security.Environment == "development"
}

// ServerAddr returns the full server address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
