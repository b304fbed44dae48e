package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
	if cfg.Time.UTCOffset != 8*time.Hour {
		t.Errorf("Time.UTCOffset = %s, want 8h", cfg.Time.UTCOffset)
	}
	if cfg.Expiry.DefaultTTL != 24*time.Hour {
		t.Errorf("Expiry.DefaultTTL = %s, want 24h", cfg.Expiry.DefaultTTL)
	}
	if cfg.Expiry.Grace != time.Hour {
		t.Errorf("Expiry.Grace = %s, want 1h", cfg.Expiry.Grace)
	}
	if len(cfg.Security.SecretKey) != 32 {
		t.Errorf("development secret key length = %d, want 32", len(cfg.Security.SecretKey))
	}
	if cfg.Redis.URL != "" {
		t.Errorf("Redis.URL = %q, want empty by default", cfg.Redis.URL)
	}
	if got := cfg.ServerAddr(); got != "0.0.0.0:8080" {
		t.Errorf("ServerAddr() = %q", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	t.Setenv("ENV", "production")
	t.Setenv("SECURITY_SECRET_KEY", key)
	t.Setenv("SECURITY_ADMIN_TOKEN", "admin")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("STORAGE_DATABASE_URL", "postgres://localhost/clipshare")
	t.Setenv("TIME_UTC_OFFSET", "0s")
	t.Setenv("EXPIRY_DEFAULT_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false")
	}
	if cfg.Storage.Backend != BackendPostgres {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendPostgres)
	}
	if cfg.Time.UTCOffset != 0 {
		t.Errorf("Time.UTCOffset = %s, want 0", cfg.Time.UTCOffset)
	}
	if cfg.Expiry.DefaultTTL != 2*time.Hour {
		t.Errorf("Expiry.DefaultTTL = %s, want 2h", cfg.Expiry.DefaultTTL)
	}
}

func TestLoad_InvalidSecretKey(t *testing.T) {
	t.Setenv("SECURITY_SECRET_KEY", "not base64!!")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid key")
	}

	t.Setenv("SECURITY_SECRET_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for short key")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{RequestTimeout: 30 * time.Second},
			Storage:   StorageConfig{Backend: BackendFile, Dir: "data"},
			Security:  SecurityConfig{SecretKey: make([]byte, 32), Environment: "development", CleanupInterval: 5 * time.Minute},
			Expiry:    ExpiryConfig{DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour, Grace: time.Hour},
			Time:      TimeConfig{UTCOffset: 8 * time.Hour},
			RateLimit: RateLimitConfig{Requests: 100, Window: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, true},
		{"postgres without url", func(c *Config) { c.Storage.Backend = BackendPostgres }, true},
		{"file without dir", func(c *Config) { c.Storage.Dir = "" }, true},
		{"zero ttl", func(c *Config) { c.Expiry.DefaultTTL = 0 }, true},
		{"max below default", func(c *Config) { c.Expiry.MaxTTL = time.Minute }, true},
		{"negative grace", func(c *Config) { c.Expiry.Grace = -time.Second }, true},
		{"zero grace", func(c *Config) { c.Expiry.Grace = 0 }, true},
		{"zero cleanup interval", func(c *Config) { c.Security.CleanupInterval = 0 }, true},
		{"negative cleanup interval", func(c *Config) { c.Security.CleanupInterval = -time.Minute }, true},
		{"zero rate limit window", func(c *Config) { c.RateLimit.Window = 0 }, true},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, true},
		{"offset out of range", func(c *Config) { c.Time.UTCOffset = 20 * time.Hour }, true},
		{"missing key", func(c *Config) { c.Security.SecretKey = nil }, true},
		{"production without admin token", func(c *Config) { c.Security.Environment = "production" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ZeroCleanupInterval(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SECURITY_CLEANUP_INTERVAL", "0s")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for a zero cleanup interval")
	}
}
