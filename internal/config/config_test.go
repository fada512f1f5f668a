package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GraceMinutes != 15 || cfg.LeadMinutes != 15 {
		t.Fatalf("unexpected window defaults: grace=%d lead=%d", cfg.GraceMinutes, cfg.LeadMinutes)
	}
	if cfg.SweepInterval != 60*time.Second {
		t.Fatalf("unexpected sweep interval: %s", cfg.SweepInterval)
	}
	if cfg.DedupWindow != 5*time.Minute {
		t.Fatalf("unexpected dedup window: %s", cfg.DedupWindow)
	}
	if cfg.DatabasePath == "" || cfg.Timezone == "" {
		t.Fatalf("expected database and timezone defaults, got %+v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TASKREMINDER_GRACE_MINUTES", "3")
	t.Setenv("TASKREMINDER_TIMEZONE", "Asia/Manila")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GraceMinutes != 3 {
		t.Fatalf("expected grace from env, got %d", cfg.GraceMinutes)
	}
	if cfg.Timezone != "Asia/Manila" {
		t.Fatalf("expected timezone from env, got %q", cfg.Timezone)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("TASKREMINDER_GRACE_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive grace")
	}
}

func TestLoadRequiresChatIDWithToken(t *testing.T) {
	t.Setenv("TASKREMINDER_TELEGRAM_TOKEN", "123:abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for token without chat id")
	}
}
