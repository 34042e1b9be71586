package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"MOLTBOOK_URL", "MOLTBOOK_USERNAME", "MOLTBOOK_PASSWORD",
		"HEADLESS", "SLOW_MO", "CRON_SCHEDULE", "BOT_COOLDOWN",
		"MOLTBOT_DATA_DIR", "DASHBOARD_ADDR", "SMTP_HOST",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned unexpected error: %v", err)
	}

	if cfg.ForumURL != "http://moltbook.com" {
		t.Errorf("ForumURL = %q, want default forum URL", cfg.ForumURL)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.CronSpec != "0 * * * *" {
		t.Errorf("CronSpec = %q, want hourly default", cfg.CronSpec)
	}
	if cfg.Cooldown != 5*time.Second {
		t.Errorf("Cooldown = %v, want 5s", cfg.Cooldown)
	}
	if cfg.SMTP.Configured() {
		t.Error("SMTP should not be configured with empty env")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MOLTBOOK_URL", "https://forum.example.com")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SLOW_MO", "100")
	t.Setenv("BOT_COOLDOWN", "2000")
	t.Setenv("MOLTBOT_DATA_DIR", "/var/lib/moltbot")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned unexpected error: %v", err)
	}

	if cfg.ForumURL != "https://forum.example.com" {
		t.Errorf("ForumURL = %q, want override", cfg.ForumURL)
	}
	if cfg.Headless {
		t.Error("Headless should be false when HEADLESS=false")
	}
	if cfg.SlowMo != 100*time.Millisecond {
		t.Errorf("SlowMo = %v, want 100ms", cfg.SlowMo)
	}
	if cfg.Cooldown != 2*time.Second {
		t.Errorf("Cooldown = %v, want 2s", cfg.Cooldown)
	}
	if got := cfg.JournalPath(); got != "/var/lib/moltbot/bot.log" {
		t.Errorf("JournalPath = %q", got)
	}
	if got := cfg.CookiesPath(); got != "/var/lib/moltbot/cookies.json" {
		t.Errorf("CookiesPath = %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{ForumURL: "http://x", NavigationTimeout: time.Second}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.ForumURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty forum URL should be rejected")
	}

	cfg.ForumURL = "http://x"
	cfg.Cooldown = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative cooldown should be rejected")
	}
}

func TestEnvMillisIgnoresGarbage(t *testing.T) {
	t.Setenv("SLOW_MO", "not-a-number")
	if got := envMillis("SLOW_MO", 300*time.Millisecond); got != 300*time.Millisecond {
		t.Errorf("envMillis = %v, want fallback", got)
	}
}

func TestSMTPRecipients(t *testing.T) {
	s := SMTPConfig{To: "a@example.com, b@example.com,,"}
	got := s.Recipients()
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Errorf("Recipients = %v", got)
	}
	if got := (SMTPConfig{}).Recipients(); len(got) != 0 {
		t.Errorf("empty To gave %v", got)
	}
}
