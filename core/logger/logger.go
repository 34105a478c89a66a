// Package logger configures the process-wide structured logger and exposes
// per-component child loggers used across the bot.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	// L is the base logger. Component loggers below derive from it.
	L = slog.Default()

	// DB logs database events.
	DB = L.With("component", "db")
	// MIG logs database migration events.
	MIG = L.With("component", "db.migrate")
	// TG logs Telegram transport events.
	TG = L.With("component", "tg")
	// GAME logs game engine events.
	GAME = L.With("component", "game")
	// TIMER logs timer service events.
	TIMER = L.With("component", "game.timer")
	// ADMIN logs admin API events.
	ADMIN = L.With("component", "admin")
)

// Options selects level and output format.
type Options struct {
	Level  string // debug, info, warn, error; default info
	Format string // text or json; default text
}

// Init configures the global structured logger. It may be called only once;
// later calls are no-ops.
func Init(opts Options) error {
	var initErr error
	initOnce.Do(func() {
		level, err := parseLevel(opts.Level)
		if err != nil {
			initErr = err
			return
		}

		hopts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		switch strings.ToLower(strings.TrimSpace(opts.Format)) {
		case "", "text":
			handler = slog.NewTextHandler(os.Stdout, hopts)
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, hopts)
		default:
			initErr = fmt.Errorf("logger: invalid format %q; allowed: text, json", opts.Format)
			return
		}

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()
	})
	return initErr
}

func wireComponents() {
	DB = L.With("component", "db")
	MIG = L.With("component", "db.migrate")
	TG = L.With("component", "tg")
	GAME = L.With("component", "game")
	TIMER = L.With("component", "game.timer")
	ADMIN = L.With("component", "admin")
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger: invalid level %q", level)
	}
}

// RoundMS rounds a duration to whole milliseconds for log output.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
