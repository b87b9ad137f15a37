package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Steam.RequestDelay != 1800*time.Millisecond {
		t.Errorf("expected 1.8s request delay, got %s", cfg.Steam.RequestDelay)
	}
	if cfg.Steam.RequestJitter != 300*time.Millisecond {
		t.Errorf("expected 300ms request jitter, got %s", cfg.Steam.RequestJitter)
	}
	if cfg.Steam.DailyLimit != 100000 {
		t.Errorf("expected daily limit 100000, got %d", cfg.Steam.DailyLimit)
	}
	if cfg.PriceDB.Staleness != 168*time.Hour {
		t.Errorf("expected 168h staleness, got %s", cfg.PriceDB.Staleness)
	}
	if cfg.Scheduler.CronSpec == "" {
		t.Error("expected a default cron spec")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STEAM_REQUEST_JITTER", "50ms")
	t.Setenv("STEAM_REQUEST_DELAY", "2s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Steam.RequestJitter != 50*time.Millisecond {
		t.Errorf("expected 50ms request jitter, got %s", cfg.Steam.RequestJitter)
	}
	if cfg.Steam.RequestDelay != 2*time.Second {
		t.Errorf("expected 2s request delay, got %s", cfg.Steam.RequestDelay)
	}
}
