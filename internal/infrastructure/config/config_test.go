package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/coinledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StoreDriver != config.StoreDriverPostgres {
		t.Fatalf("expected postgres store driver, got %s", cfg.StoreDriver)
	}

	if cfg.StartingBalance != 1000 {
		t.Fatalf("expected starting balance 1000, got %d", cfg.StartingBalance)
	}

	if cfg.DatabaseLockTimeout != 5*time.Second {
		t.Fatalf("expected lock timeout 5s, got %s", cfg.DatabaseLockTimeout)
	}

	if !cfg.RateLimitEnabled || cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("unexpected rate limit defaults: enabled=%v rps=%v burst=%d", cfg.RateLimitEnabled, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	if cfg.TxMaxRetries != 3 {
		t.Fatalf("expected 3 retries, got %d", cfg.TxMaxRetries)
	}

	if cfg.ReconcileInterval != 15*time.Minute {
		t.Fatalf("expected reconcile interval 15m, got %s", cfg.ReconcileInterval)
	}

	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Fatalf("expected catalog cache ttl 5m, got %s", cfg.CatalogCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STARTING_BALANCE", "250")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	if cfg.StoreDriver != config.StoreDriverMemory {
		t.Fatalf("expected memory store driver, got %s", cfg.StoreDriver)
	}

	if cfg.StartingBalance != 250 {
		t.Fatalf("expected starting balance 250, got %d", cfg.StartingBalance)
	}

	if cfg.DatabaseLockTimeout != 750*time.Millisecond {
		t.Fatalf("expected lock timeout override, got %s", cfg.DatabaseLockTimeout)
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "negative starting balance", env: map[string]string{"STARTING_BALANCE": "-1"}},
		{name: "zero lock timeout", env: map[string]string{"DATABASE_LOCK_TIMEOUT": "0s"}},
		{name: "zero rate", env: map[string]string{"RATE_LIMIT_RPS": "0"}},
		{name: "negative retries", env: map[string]string{"TX_MAX_RETRIES": "-1"}},
		{name: "auth without secret", env: map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
