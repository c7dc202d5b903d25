package config

import (
	"os"
	"testing"
	"time"
)

var allVars = []string{
	"LISTEN_ADDR",
	"SERVER_READ_TIMEOUT",
	"SERVER_WRITE_TIMEOUT",
	"SERVER_IDLE_TIMEOUT",
	"SERVER_SHUTDOWN_TIMEOUT",
	"CORS_ALLOWED_ORIGINS",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"APP_ENV",
	"LOG_LEVEL",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("Server.ListenAddr = %s, want 127.0.0.1:8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.IdleTimeout != 120*time.Second {
		t.Errorf("Server.IdleTimeout = %v, want 120s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Errorf("Server.AllowedOrigins = %v, want empty", cfg.Server.AllowedOrigins)
	}
	if cfg.Store.URL != "postgres://localhost/linkstore?sslmode=disable" {
		t.Errorf("Store.URL = %s", cfg.Store.URL)
	}
	if cfg.Store.Backend() != BackendPostgres {
		t.Errorf("Store.Backend() = %s, want postgres", cfg.Store.Backend())
	}
	if cfg.Store.MaxConns != 10 || cfg.Store.MinConns != 1 {
		t.Errorf("Store conns = %d/%d, want 10/1", cfg.Store.MaxConns, cfg.Store.MinConns)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %s, want development", cfg.App.Environment)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("App.LogLevel = %s, want info", cfg.App.LogLevel)
	}
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"LISTEN_ADDR":             "0.0.0.0:9090",
		"SERVER_READ_TIMEOUT":     "5m",
		"SERVER_WRITE_TIMEOUT":    "30s",
		"SERVER_IDLE_TIMEOUT":     "2h",
		"SERVER_SHUTDOWN_TIMEOUT": "1m30s",
		"CORS_ALLOWED_ORIGINS":    "https://a.example.com,https://b.example.com",

		"DATABASE_URL": "sqlite:///var/lib/linkstore/links.db",
		"DB_MAX_CONNS": "25",
		"DB_MIN_CONNS": "5",

		"APP_ENV":   "test",
		"LOG_LEVEL": "debug",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("Server.ListenAddr = %s, want 0.0.0.0:9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.ReadTimeout != 5*time.Minute {
		t.Errorf("Server.ReadTimeout = %v, want 5m", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 90*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 1m30s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Store.Backend() != BackendSQLite {
		t.Errorf("Store.Backend() = %s, want sqlite", cfg.Store.Backend())
	}
	if cfg.Store.MaxConns != 25 {
		t.Errorf("Store.MaxConns = %d, want 25", cfg.Store.MaxConns)
	}
	if cfg.App.Environment != "test" {
		t.Errorf("App.Environment = %s, want test", cfg.App.Environment)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid duration", "SERVER_READ_TIMEOUT", "invalid"},
		{"zero timeout", "SERVER_WRITE_TIMEOUT", "0s"},
		{"invalid int", "DB_MAX_CONNS", "not-a-number"},
		{"min above max", "DB_MIN_CONNS", "50"},
		{"unsupported scheme", "DATABASE_URL", "mysql://localhost/links"},
		{"unknown environment", "APP_ENV", "qa"},
		{"unknown log level", "LOG_LEVEL", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail when %s has invalid value %s", tt.envVar, tt.value)
			}
		})
	}
}

func TestStoreConfig_Backend(t *testing.T) {
	tests := []struct {
		url  string
		want Backend
	}{
		{"postgres://user:pass@db:5432/links", BackendPostgres},
		{"postgresql://db/links", BackendPostgres},
		{"sqlite://links.db", BackendSQLite},
		{"file:links.db?cache=shared", BackendSQLite},
		{":memory:", BackendSQLite},
		{"libsql://links-acme.turso.io", BackendLibSQL},
		{"wss://links.example.com", BackendLibSQL},
		{"https://links.example.com", BackendLibSQL},
		{"mysql://db/links", ""},
		{"links.db", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c := StoreConfig{URL: tt.url}
			if got := c.Backend(); got != tt.want {
				t.Errorf("Backend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoreConfig_Redacted(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://user:secret@db:5432/links", "postgres://user:xxxxx@db:5432/links"},
		{"postgres://user@db/links", "postgres://user@db/links"},
		{"postgres://db/links", "postgres://db/links"},
		{":memory:", ":memory:"},
	}

	for _, tt := range tests {
		c := StoreConfig{URL: tt.url}
		if got := c.Redacted(); got != tt.want {
			t.Errorf("Redacted(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
