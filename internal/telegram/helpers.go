package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	appmodels "github.com/dmarochkin/otpgram/pkg/models"
)

// sendMessage sends an HTML-formatted message to a chat
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})
	if err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// profileOf extracts the sender identity from an update message.
func profileOf(msg *models.Message) appmodels.Profile {
	if msg.From == nil {
		return appmodels.Profile{}
	}
	return appmodels.Profile{
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
	}
}
