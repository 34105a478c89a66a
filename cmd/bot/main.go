package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/m3rciful/exchangebot/core/config"
	"github.com/m3rciful/exchangebot/core/database"
	"github.com/m3rciful/exchangebot/core/logger"
	"github.com/m3rciful/exchangebot/internal/admin"
	"github.com/m3rciful/exchangebot/internal/game"
	"github.com/m3rciful/exchangebot/internal/storage/postgres"
	"github.com/m3rciful/exchangebot/internal/telegram"
)

const defaultConfigPath = "configs/config.yaml"

// defaultAssets seeds the shared asset catalog on startup. Seeding is
// idempotent, so redeploys never duplicate entries.
var defaultAssets = []string{
	"Gold",
	"Oil",
	"Wheat",
	"Copper",
	"Timber",
	"Coffee",
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	// .env is optional; real deployments pass env vars directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return err
	}

	startedAt := time.Now()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database, "migrations"); err != nil {
		return err
	}

	store := postgres.New(db)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.SeedAssets(ctx, defaultAssets); err != nil {
		return err
	}

	bot, err := telegram.NewBot(cfg.Telegram)
	if err != nil {
		return err
	}

	timers := game.NewTimerService()
	engine := game.NewEngine(store, telegram.NewMessenger(bot), timers, game.Config{
		StartBalance:    cfg.Game.StartBalance,
		SessionLimit:    cfg.Game.SessionLimit,
		ConfirmWindow:   cfg.Game.ConfirmWindow(),
		SessionDuration: cfg.Game.SessionDuration(),
		MinPrice:        cfg.Game.MinPrice,
		MaxPrice:        cfg.Game.MaxPrice,
	})
	defer engine.Shutdown()

	telegram.Attach(bot, engine)

	errCh := make(chan error, 2)
	if cfg.Admin.Listen != "" {
		srv := admin.New(store, cfg.Admin.Listen, cfg.Admin.Token)
		go func() { errCh <- srv.Run(ctx) }()
	}
	go func() { errCh <- telegram.Run(ctx, bot) }()

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	select {
	case <-ctx.Done():
		logger.L.With("component", "app").Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		// Let the bot/admin goroutines observe cancellation.
		return nil
	case err := <-errCh:
		return err
	}
}
