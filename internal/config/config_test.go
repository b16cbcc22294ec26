package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")
	defer os.Unsetenv("JWT_SECRET")

	for _, v := range []string{"SERVER_ADDR", "SERVER_PORT", "DB_PATH", "SESSION_TTL", "RATE_LIMIT_ENABLED", "JOIN_REQUESTS_PER_MINUTE"} {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DBPath != "./data/journeyhub.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SessionTTL != 30*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if !cfg.RateLimitEnabled {
		t.Error("RateLimitEnabled should default to true")
	}
	if cfg.JoinRequestsPerMinute != 20 {
		t.Errorf("JoinRequestsPerMinute = %d", cfg.JoinRequestsPerMinute)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("SESSION_TTL", "1h")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	defer func() {
		for _, v := range []string{"JWT_SECRET", "SERVER_PORT", "SESSION_TTL", "RATE_LIMIT_ENABLED"} {
			os.Unsetenv(v)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
	if cfg.RateLimitEnabled {
		t.Error("RateLimitEnabled should be false")
	}
}
