// Package config loads the bot configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/exchangebot/core/database"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// LongPollTimeoutSeconds defines the long polling timeout; 0 -> default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// GameConfig holds the tunable game parameters. Money values are integer
// cents.
type GameConfig struct {
	StartBalance      int64 `yaml:"start_balance" envconfig:"GAME_START_BALANCE"`
	SessionLimit      int   `yaml:"session_limit" envconfig:"GAME_SESSION_LIMIT"`
	ConfirmWindowSecs int   `yaml:"confirm_window_seconds" envconfig:"GAME_CONFIRM_WINDOW_SECONDS"`
	SessionTimerSecs  int   `yaml:"session_timer_seconds" envconfig:"GAME_SESSION_TIMER_SECONDS"`
	MinPrice          int64 `yaml:"min_price" envconfig:"GAME_MIN_PRICE"`
	MaxPrice          int64 `yaml:"max_price" envconfig:"GAME_MAX_PRICE"`
}

// ConfirmWindow returns the confirmation window as a duration.
func (g GameConfig) ConfirmWindow() time.Duration {
	return time.Duration(g.ConfirmWindowSecs) * time.Second
}

// SessionDuration returns the trading session length as a duration.
func (g GameConfig) SessionDuration() time.Duration {
	return time.Duration(g.SessionTimerSecs) * time.Second
}

// AdminConfig configures the read-only statistics HTTP API. An empty listen
// address disables the server.
type AdminConfig struct {
	Listen string `yaml:"listen" envconfig:"ADMIN_LISTEN"`
	Token  string `yaml:"token" envconfig:"ADMIN_TOKEN"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Database database.Config `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
	Game     GameConfig      `yaml:"game"`
	Admin    AdminConfig     `yaml:"admin"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}

	g := &cfg.Game
	if g.StartBalance <= 0 {
		g.StartBalance = 10000_00
	}
	if g.SessionLimit <= 0 {
		g.SessionLimit = 3
	}
	if g.ConfirmWindowSecs <= 0 {
		g.ConfirmWindowSecs = 5
	}
	if g.SessionTimerSecs <= 0 {
		g.SessionTimerSecs = 60
	}
	if g.MinPrice <= 0 {
		g.MinPrice = 10_00
	}
	if g.MaxPrice <= 0 {
		g.MaxPrice = 1000_00
	}
	if g.MaxPrice < g.MinPrice {
		return fmt.Errorf("game.max_price must be >= game.min_price")
	}

	if cfg.Admin.Listen != "" && cfg.Admin.Token == "" {
		return fmt.Errorf("admin.token is required when admin.listen is set")
	}
	return nil
}
