package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SecretPath is where docker compose mounts the bot token secret.
var SecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string
	DatabaseURL   string // postgres://... or a SQLite file path
	AdminID       int64  // 0 disables operator notices

	ConnMaxLifetime time.Duration
	FlushInterval   time.Duration
	PollTimeout     int // seconds
}

var ErrNoToken = errors.New("bot token not found: set BOT_KEY or TELEGRAM_BOT_TOKEN, or mount the docker secret")

// Load reads configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:   botToken(),
		DatabaseURL:     getEnv("DATABASE_URL", "bot.db"),
		AdminID:         getEnvInt64("ADMIN_ID", 0),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		FlushInterval:   getEnvDuration("STATE_FLUSH_INTERVAL", time.Minute),
		PollTimeout:     getEnvInt("POLL_TIMEOUT", 60),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrNoToken
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if c.ConnMaxLifetime <= 0 {
		return fmt.Errorf("DB_CONN_MAX_LIFETIME must be positive, got %s", c.ConnMaxLifetime)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("STATE_FLUSH_INTERVAL must be positive, got %s", c.FlushInterval)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %d", c.PollTimeout)
	}
	return nil
}

// botToken prefers the docker secret, then the environment.
func botToken() string {
	if data, err := os.ReadFile(SecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	for _, key := range []string{"BOT_KEY", "TELEGRAM_BOT_TOKEN"} {
		if token := strings.TrimSpace(os.Getenv(key)); token != "" {
			return token
		}
	}
	return ""
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
