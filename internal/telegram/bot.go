package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dmarochkin/otpgram/internal/config"
	"github.com/dmarochkin/otpgram/internal/database"
	"github.com/dmarochkin/otpgram/internal/formatter"
	"github.com/dmarochkin/otpgram/internal/monitor"
	"github.com/dmarochkin/otpgram/internal/onboarding"
	"github.com/dmarochkin/otpgram/internal/registry"
)

// Bot represents the Telegram bot
type Bot struct {
	bot        *bot.Bot
	db         *database.DB
	registry   *registry.Registry
	monitor    *monitor.Manager
	onboarding *onboarding.Machine
	formatter  *formatter.TelegramFormatter
	logger     *slog.Logger
	config     *config.Config
}

// BotDeps dependencies for creating a bot
type BotDeps struct {
	Config     *config.Config
	DB         *database.DB
	Registry   *registry.Registry
	Monitor    *monitor.Manager
	Onboarding *onboarding.Machine
	Formatter  *formatter.TelegramFormatter
	Logger     *slog.Logger
}

// NewBot creates a new Telegram bot
func NewBot(deps BotDeps) (*Bot, error) {
	b := &Bot{
		db:         deps.DB,
		registry:   deps.Registry,
		monitor:    deps.Monitor,
		onboarding: deps.Onboarding,
		formatter:  deps.Formatter,
		logger:     deps.Logger.With("component", "telegram_bot"),
		config:     deps.Config,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
	}

	tgBot, err := bot.New(deps.Config.TelegramToken, opts...)
	if err != nil {
		return nil, err
	}

	b.bot = tgBot
	b.registerHandlers()

	return b, nil
}

// API exposes the underlying client for the outbound transport adapter.
func (b *Bot) API() *bot.Bot {
	return b.bot
}

// registerHandlers registers command handlers
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, b.handleLogin)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, b.handleLogout)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, b.handleStatus)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, b.handleStats)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
}

// Start starts the long-polling update loop.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting telegram bot")
	b.bot.Start(ctx)
}

// defaultHandler routes free text into the onboarding machine and answers
// unknown commands.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	if msg.Text[0] == '/' {
		b.logger.Debug("unknown command", "text", msg.Text)
		b.sendMessage(ctx, msg.Chat.ID, "❓ Unknown command. Use /help to see all commands.")
		return
	}

	reply, handled := b.onboarding.Input(ctx, msg.Chat.ID, msg.Text, profileOf(msg))
	if handled && reply != "" {
		b.sendMessage(ctx, msg.Chat.ID, reply)
	}
	// Free text outside onboarding is not an event; drop it.
}
