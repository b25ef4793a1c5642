package telegram

import (
	"context"
	"errors"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Transport adapts the bot client to the notifier's outbound interface.
// It is created before the bot (the notifier is a poller dependency) and
// bound to the client once the bot exists.
type Transport struct {
	mu  sync.RWMutex
	bot *bot.Bot
}

// NewTransport creates an unbound transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Bind attaches the bot client.
func (t *Transport) Bind(b *bot.Bot) {
	t.mu.Lock()
	t.bot = b
	t.mu.Unlock()
}

// SendMessage delivers one HTML message to a chat.
func (t *Transport) SendMessage(ctx context.Context, chatID int64, html string) error {
	t.mu.RLock()
	b := t.bot
	t.mu.RUnlock()

	if b == nil {
		return errors.New("transport not bound")
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      html,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})
	return err
}
