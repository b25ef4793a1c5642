package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/dmarochkin/otpgram/internal/config"
	"github.com/dmarochkin/otpgram/internal/database"
	"github.com/dmarochkin/otpgram/internal/formatter"
	"github.com/dmarochkin/otpgram/internal/mailbox"
	"github.com/dmarochkin/otpgram/internal/monitor"
	"github.com/dmarochkin/otpgram/internal/notify"
	"github.com/dmarochkin/otpgram/internal/onboarding"
	"github.com/dmarochkin/otpgram/internal/parser"
	"github.com/dmarochkin/otpgram/internal/registry"
	"github.com/dmarochkin/otpgram/internal/stats"
	"github.com/dmarochkin/otpgram/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting otp forwarding bot")

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Create components
	reg := registry.New(db, logger)
	dialer := mailbox.NewTLSDialer(cfg.IMAPServer, cfg.IMAPDialTimeout, logger)
	transport := telegram.NewTransport()
	notifier := notify.New(transport, logger)
	tgFormatter := formatter.NewTelegramFormatter()

	mon := monitor.NewManager(monitor.ManagerDeps{
		Config:     cfg,
		Registry:   reg,
		Dialer:     dialer,
		Notifier:   notifier,
		Store:      db,
		HTMLParser: parser.NewHTMLParser(),
		Formatter:  tgFormatter,
		Logger:     logger,
	})
	flow := onboarding.New(reg, mon, dialer, logger)

	// Create bot
	tgBot, err := telegram.NewBot(telegram.BotDeps{
		Config:     cfg,
		DB:         db,
		Registry:   reg,
		Monitor:    mon,
		Onboarding: flow,
		Formatter:  tgFormatter,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	transport.Bind(tgBot.API())

	// Restore dormant accounts. Credentials are not recoverable, so these
	// stay unmonitored until their holders /login again.
	accounts, err := reg.LoadAll(ctx)
	if err != nil {
		logger.Error("failed to load accounts", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded accounts", "count", len(accounts))

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		logger.Info("shutting down...")

		mon.StopAll()
		cancel()
	}()

	// Periodic aggregate snapshots
	recorder := stats.NewRecorder(db, reg, cfg.SnapshotInterval, logger)
	go recorder.Run(ctx)

	// Start bot
	logger.Info("bot is running, press Ctrl+C to stop")
	tgBot.Start(ctx)

	logger.Info("bot stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
