package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("expected default sweep interval 5m, got %s", cfg.SweepInterval)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default shutdown timeout 10s, got %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two default origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_HTTP_ADDR", ":9999")
	t.Setenv("LEDGER_SWEEP_INTERVAL", "30s")
	t.Setenv("LEDGER_CORS_ORIGINS", "https://one.example.com,https://two.example.com")
	t.Setenv("LEDGER_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("expected :9999, got %s", cfg.HTTPAddr)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.SweepInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://one.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %s", cfg.LogLevel)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LEDGER_SWEEP_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
