package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Telegram
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/otpgram.db"`

	// Mailbox
	IMAPServer      string        `env:"IMAP_SERVER"` // optional override, host:port; resolved from the address domain when empty
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`

	// Polling
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"200ms"`
	ErrorBackoff    time.Duration `env:"ERROR_BACKOFF" envDefault:"2s"`
	CycleTimeout    time.Duration `env:"CYCLE_TIMEOUT" envDefault:"25s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"2s"`
	MaxSessions     int64         `env:"MAX_SESSIONS" envDefault:"1000"`

	// Stats
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}

	return cfg, nil
}
