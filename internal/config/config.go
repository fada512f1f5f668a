package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the daemon.
//
// GraceMinutes is shared by the status reconciler (overdue threshold) and the
// notification scheduler (overdue alert offset). The two must stay equal or a
// task can show overdue before its overdue alert fires.
type Config struct {
	DatabasePath   string
	Timezone       string
	GraceMinutes   int
	LeadMinutes    int
	SweepInterval  time.Duration
	DedupWindow    time.Duration
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from an optional taskreminder.yaml in the working
// directory and from TASKREMINDER_* environment variables, with defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("taskreminder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("taskreminder")
	v.AutomaticEnv()

	v.SetDefault("database_path", "taskreminder.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("grace_minutes", 15)
	v.SetDefault("lead_minutes", 15)
	v.SetDefault("sweep_interval", "60s")
	v.SetDefault("dedup_window", "5m")
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_chat_id", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		DatabasePath:   v.GetString("database_path"),
		Timezone:       v.GetString("timezone"),
		GraceMinutes:   v.GetInt("grace_minutes"),
		LeadMinutes:    v.GetInt("lead_minutes"),
		SweepInterval:  v.GetDuration("sweep_interval"),
		DedupWindow:    v.GetDuration("dedup_window"),
		TelegramToken:  v.GetString("telegram_token"),
		TelegramChatID: v.GetInt64("telegram_chat_id"),
	}

	if cfg.GraceMinutes <= 0 {
		return cfg, fmt.Errorf("grace_minutes must be positive, got %d", cfg.GraceMinutes)
	}
	if cfg.LeadMinutes < 0 {
		return cfg, fmt.Errorf("lead_minutes must not be negative, got %d", cfg.LeadMinutes)
	}
	if cfg.SweepInterval <= 0 {
		return cfg, fmt.Errorf("sweep_interval must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.DedupWindow <= 0 {
		return cfg, fmt.Errorf("dedup_window must be positive, got %s", cfg.DedupWindow)
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("telegram_chat_id is required when telegram_token is set")
	}

	return cfg, nil
}
