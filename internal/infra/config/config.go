package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken        string
	DatabaseURL          string
	AdminTelegramID      int64
	NotifyChatID         int64 // Where due-for-promotion notifications go
	LogLevel             string
	Environment          string
	Location             *time.Location // Decides which calendar day "today" is
	CronSpecRosterCheck  string
	CronSpecHistoryPrune string
	HistoryRetentionDays int
	NotifyRatePerSec     int
	SettingsFile         string // Optional YAML file overriding stored settings
	HTTPAddr             string // Optional; empty disables the HTTP API
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.NotifyChatID = cfg.AdminTelegramID // Default: notify the admin directly
	if notifyIDStr := os.Getenv("NOTIFY_CHAT_ID"); notifyIDStr != "" {
		cfg.NotifyChatID, err = strconv.ParseInt(notifyIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.CronSpecRosterCheck = os.Getenv("CRON_SPEC_ROSTER_CHECK")
	if cfg.CronSpecRosterCheck == "" {
		cfg.CronSpecRosterCheck = "0 10 * * *" // Default: 10:00 AM daily
	}

	cfg.CronSpecHistoryPrune = os.Getenv("CRON_SPEC_HISTORY_PRUNE")
	if cfg.CronSpecHistoryPrune == "" {
		cfg.CronSpecHistoryPrune = "0 3 * * *" // Default: 3:00 AM daily
	}

	cfg.HistoryRetentionDays, err = intFromEnv("HISTORY_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}

	cfg.NotifyRatePerSec, err = intFromEnv("NOTIFY_RATE_PER_SEC", 1)
	if err != nil {
		return nil, err
	}

	cfg.SettingsFile = os.Getenv("SETTINGS_FILE")
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")

	return cfg, nil
}

// intFromEnv reads a positive integer, falling back to def when unset.
func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, v)
	}
	return v, nil
}
