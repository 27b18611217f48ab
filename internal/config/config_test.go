package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Address())
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl defaults: %+v", cfg)
	}
	if cfg.IdentifierMaxAttempts != 1000 || cfg.LoginAttemptsPerMinute != 5 {
		t.Fatalf("unexpected attempt defaults: %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development env by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://bank@localhost/bank")
	t.Setenv("SESSION_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Address())
	}
	if cfg.LogLevel != "debug" || cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected normalised values, got %+v", cfg)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("expected 5m session ttl, got %s", cfg.SessionTTL)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("APP_NAME", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_NAME=FromDotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set
	os.Unsetenv("APP_NAME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "FromDotenv" {
		t.Fatalf("expected app name from .env, got %q", cfg.AppName)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		StoreDriver:           DriverMemory,
		SessionTTL:            time.Minute,
		IdempotencyTTL:        time.Minute,
		IdentifierMaxAttempts: 10,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"unknown driver":      func(c *Config) { c.StoreDriver = "sqlite" },
		"postgres without db": func(c *Config) { c.StoreDriver = DriverPostgres },
		"mysql without db":    func(c *Config) { c.StoreDriver = DriverMySQL },
		"zero session ttl":    func(c *Config) { c.SessionTTL = 0 },
		"zero idempotency":    func(c *Config) { c.IdempotencyTTL = 0 },
		"zero attempts":       func(c *Config) { c.IdentifierMaxAttempts = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
