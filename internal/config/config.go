// Package config loads service settings from the environment, an optional .env
// file and an optional YAML file that defines the attendee directory.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"booking-service/internal/calendar"
	"booking-service/internal/models"
)

type Config struct {
	Port             string
	DatabaseURL      string
	LogLevel         string
	SlotMinutes      int
	AbandonAfter     time.Duration
	ReaperInterval   time.Duration
	CalendarProvider string
	CalendarTimeout  time.Duration
	LinkTemplate     string
	Google           calendar.GoogleConfig
	CalDAV           calendar.CalDAVConfig
	JWTSecret        string
	StaticTokens     []string

	// RedisURL enables the invite retry queue and its worker.
	RedisURL          string
	InviteRetryDelay  time.Duration
	InviteMaxRetry    int
	WorkerConcurrency int
	Directory         *models.Directory
}

// Load reads configuration. Environment variables win over the config file.
func Load() (*Config, error) {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("slot_minutes", 30)
	v.SetDefault("abandon_after", "5m")
	v.SetDefault("reaper_interval", "1m")
	v.SetDefault("calendar_provider", "link")
	v.SetDefault("calendar_timeout", "20s")
	v.SetDefault("meeting_link_template", "https://meet.jit.si/fusiondata-{id}")
	v.SetDefault("google_calendar_id", "primary")
	v.SetDefault("invite_retry_delay", "1m")
	v.SetDefault("invite_max_retry", 10)
	v.SetDefault("worker_concurrency", 2)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:             v.GetString("port"),
		DatabaseURL:      v.GetString("database_url"),
		LogLevel:         v.GetString("log_level"),
		SlotMinutes:      v.GetInt("slot_minutes"),
		AbandonAfter:     v.GetDuration("abandon_after"),
		ReaperInterval:   v.GetDuration("reaper_interval"),
		CalendarProvider: strings.ToLower(v.GetString("calendar_provider")),
		CalendarTimeout:  v.GetDuration("calendar_timeout"),
		LinkTemplate:     v.GetString("meeting_link_template"),
		Google: calendar.GoogleConfig{
			ClientID:     v.GetString("google_client_id"),
			ClientSecret: v.GetString("google_client_secret"),
			RefreshToken: v.GetString("google_refresh_token"),
			CalendarID:   v.GetString("google_calendar_id"),
		},
		CalDAV: calendar.CalDAVConfig{
			Endpoint:     v.GetString("caldav_url"),
			Username:     v.GetString("caldav_username"),
			Password:     v.GetString("caldav_password"),
			CalendarPath: v.GetString("caldav_calendar_path"),
			LinkTemplate: v.GetString("meeting_link_template"),
		},
		JWTSecret:    strings.TrimSpace(v.GetString("jwt_hmac_secret")),
		StaticTokens: splitTokens(v.GetString("static_tokens")),

		RedisURL:          v.GetString("redis_url"),
		InviteRetryDelay:  v.GetDuration("invite_retry_delay"),
		InviteMaxRetry:    v.GetInt("invite_max_retry"),
		WorkerConcurrency: v.GetInt("worker_concurrency"),
	}

	if cfg.SlotMinutes < models.ClaimMinutes || cfg.SlotMinutes%models.ClaimMinutes != 0 {
		return nil, fmt.Errorf("slot_minutes must be a positive multiple of %d", models.ClaimMinutes)
	}
	switch cfg.CalendarProvider {
	case "google", "caldav", "link", "none":
	default:
		return nil, fmt.Errorf("unknown calendar_provider %q", cfg.CalendarProvider)
	}

	dir, err := loadDirectory(v)
	if err != nil {
		return nil, err
	}
	cfg.Directory = dir
	return cfg, nil
}

func splitTokens(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
