// Package config builds the single process-wide configuration struct.
// All environment access happens here, once, at startup; every other
// package receives the resulting Config by value.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting for the moltbot daemon.
type Config struct {
	// Target forum.
	ForumURL string
	Username string
	Password string

	// Browsing behavior.
	Headless          bool
	SlowMo            time.Duration
	NavigationTimeout time.Duration

	// Scheduling.
	CronSpec       string
	ReportCronSpec string
	Cooldown       time.Duration
	RunOnStart     bool

	// Persisted state.
	DataDir      string
	PersonasFile string

	// Dashboard.
	DashboardAddr string

	// Mail (optional; empty Host disables sending).
	SMTP SMTPConfig

	LogLevel slog.Level
}

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Configured reports whether a mail transport is set up at all.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// Recipients splits the comma-separated To list into addresses.
func (s SMTPConfig) Recipients() []string {
	var out []string
	for _, addr := range strings.Split(s.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// JournalPath is the append-only activity journal file.
func (c Config) JournalPath() string { return filepath.Join(c.DataDir, "bot.log") }

// CookiesPath is the persisted session token file.
func (c Config) CookiesPath() string { return filepath.Join(c.DataDir, "cookies.json") }

// StatsPath is the derived statistics snapshot file.
func (c Config) StatsPath() string { return filepath.Join(c.DataDir, "stats.json") }

// ReportPath is the generated daily report file.
func (c Config) ReportPath() string { return filepath.Join(c.DataDir, "daily-report.html") }

// FromEnv constructs a Config from environment variables, applying
// defaults where unset. It is the only place the process reads its
// environment.
func FromEnv() (Config, error) {
	cfg := Config{
		ForumURL:          envString("MOLTBOOK_URL", "http://moltbook.com"),
		Username:          os.Getenv("MOLTBOOK_USERNAME"),
		Password:          os.Getenv("MOLTBOOK_PASSWORD"),
		Headless:          os.Getenv("HEADLESS") != "false",
		SlowMo:            envMillis("SLOW_MO", 300*time.Millisecond),
		NavigationTimeout: envMillis("NAV_TIMEOUT", 30*time.Second),
		CronSpec:          envString("CRON_SCHEDULE", "0 * * * *"),
		ReportCronSpec:    envString("REPORT_CRON_SCHEDULE", "0 9 * * *"),
		Cooldown:          envMillis("BOT_COOLDOWN", 5*time.Second),
		RunOnStart:        os.Getenv("RUN_ON_START") != "false",
		DataDir:           envString("MOLTBOT_DATA_DIR", "logs"),
		PersonasFile:      os.Getenv("MOLTBOT_PERSONAS_FILE"),
		DashboardAddr:     envString("DASHBOARD_ADDR", ":38888"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envString("EMAIL_FROM", os.Getenv("SMTP_USER")),
			To:       envString("EMAIL_TO", os.Getenv("MOLTBOOK_USERNAME")),
		},
		LogLevel: slog.LevelInfo,
	}
	if os.Getenv("MOLTBOT_DEBUG") == "true" {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail deep inside a cycle.
func (c Config) Validate() error {
	if c.ForumURL == "" {
		return fmt.Errorf("config: forum URL must not be empty")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("config: cooldown must not be negative")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("config: navigation timeout must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envMillis reads an integer environment variable expressed in milliseconds.
func envMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
