package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.IdentityURL == "" || cfg.TokenURL == "" || cfg.DatabaseURL == "" {
		t.Fatalf("expected endpoint defaults, got %+v", cfg)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected 10s default timeout got %s", cfg.HTTPTimeout)
	}
	if cfg.MetricsAddress != "" {
		t.Fatalf("metrics listener should default to disabled, got %q", cfg.MetricsAddress)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DAYLEDGER_DATABASE_URL", "http://localhost:9000")
	t.Setenv("DAYLEDGER_HTTP_TIMEOUT", "3s")
	t.Setenv("DAYLEDGER_METRICS_ADDRESS", ":9102")
	t.Setenv("DAYLEDGER_DATE", "2026-08-31")

	cfg := Load()

	if cfg.DatabaseURL != "http://localhost:9000" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.MetricsAddress != ":9102" {
		t.Fatalf("unexpected metrics address %q", cfg.MetricsAddress)
	}
	if cfg.StartDate != "2026-08-31" {
		t.Fatalf("unexpected start date %q", cfg.StartDate)
	}
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("DAYLEDGER_HTTP_TIMEOUT", "soon")

	cfg := Load()
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("malformed duration should fall back, got %s", cfg.HTTPTimeout)
	}
}
