package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error without BOT_TOKEN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "")
	t.Setenv("DEFAULT_MUTE", "")
	t.Setenv("EXEMPT_CACHE_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultMute != time.Hour {
		t.Errorf("DefaultMute = %s, want 1h", cfg.DefaultMute)
	}
	if cfg.ExemptCacheTTL != 5*time.Minute {
		t.Errorf("ExemptCacheTTL = %s, want 5m", cfg.ExemptCacheTTL)
	}
	if cfg.OwnerID != 0 {
		t.Errorf("OwnerID = %d, want 0 when unset", cfg.OwnerID)
	}
	if cfg.RedisAddr == "" || cfg.NATSURL == "" || cfg.MetricsAddr == "" {
		t.Error("expected non-empty defaults for addresses")
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "7322925570")
	t.Setenv("DEFAULT_MUTE", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OwnerID != 7322925570 {
		t.Errorf("OwnerID = %d, want 7322925570", cfg.OwnerID)
	}
	if cfg.DefaultMute != 30*time.Minute {
		t.Errorf("DefaultMute = %s, want 30m", cfg.DefaultMute)
	}
}

func TestLoad_RejectsBadOwnerID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error with malformed OWNER_ID")
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "")
	t.Setenv("DEFAULT_MUTE", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultMute != time.Hour {
		t.Errorf("DefaultMute = %s, want fallback 1h", cfg.DefaultMute)
	}
}
