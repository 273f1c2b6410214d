package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BOT_KEY", "TELEGRAM_BOT_TOKEN", "DATABASE_URL", "ADMIN_ID",
		"DB_CONN_MAX_LIFETIME", "STATE_FLUSH_INTERVAL", "POLL_TIMEOUT"} {
		t.Setenv(k, "")
	}
	old := SecretPath
	SecretPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { SecretPath = old })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "123:abc" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "bot.db" || cfg.AdminID != 0 {
		t.Errorf("DatabaseURL = %q, AdminID = %d", cfg.DatabaseURL, cfg.AdminID)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute || cfg.FlushInterval != time.Minute || cfg.PollTimeout != 60 {
		t.Errorf("durations = %s, %s, %d", cfg.ConnMaxLifetime, cfg.FlushInterval, cfg.PollTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_KEY", "from-bot-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "ignored")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/bot")
	t.Setenv("ADMIN_ID", "-100200300")
	t.Setenv("STATE_FLUSH_INTERVAL", "30s")
	t.Setenv("POLL_TIMEOUT", "not a number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "from-bot-key" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.AdminID != -100200300 {
		t.Errorf("AdminID = %d", cfg.AdminID)
	}
	if cfg.FlushInterval != 30*time.Second {
		t.Errorf("FlushInterval = %s", cfg.FlushInterval)
	}
	if cfg.PollTimeout != 60 {
		t.Errorf("PollTimeout = %d, want default for junk", cfg.PollTimeout)
	}
}

func TestSecretFileWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	SecretPath = filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(SecretPath, []byte("  from-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "from-secret" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); !errors.Is(err, ErrNoToken) {
		t.Errorf("Load() without token error = %v", err)
	}

	tests := map[string]Config{
		"db":       {TelegramToken: "t", ConnMaxLifetime: time.Minute, FlushInterval: time.Minute, PollTimeout: 1},
		"lifetime": {TelegramToken: "t", DatabaseURL: "x", FlushInterval: time.Minute, PollTimeout: 1},
		"flush":    {TelegramToken: "t", DatabaseURL: "x", ConnMaxLifetime: time.Minute, PollTimeout: 1},
		"poll":     {TelegramToken: "t", DatabaseURL: "x", ConnMaxLifetime: time.Minute, FlushInterval: time.Minute},
	}
	for name, c := range tests {
		if err := c.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil", name)
		}
	}
}
