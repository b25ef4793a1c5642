package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dmarochkin/otpgram/internal/database"
)

// handleStart handles /start command
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	text := fmt.Sprintf(`👋 <b>Welcome %s!</b>

🤖 <b>OTP Forwarding Bot</b>
⚡ <i>Forwards one-time codes from your mailbox to this chat</i>

<b>🔧 Available Commands:</b>
• /login - Connect your mailbox
• /logout - Disconnect
• /status - Check connection status
• /stats - View your OTP statistics
• /help - Detailed help guide

Send /login to get started!`, name)

	b.sendMessage(ctx, msg.Chat.ID, text)
}

// handleHelp handles /help command
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	text := `📖 <b>OTP Forwarding Bot - Help</b>

<b>🔧 Commands:</b>
• /start - Welcome message
• /login - Connect your mailbox
• /logout - Disconnect and clear your data
• /stats - View detailed OTP statistics
• /status - Check connection and monitoring status
• /help - This guide

<b>📱 Setup Requirements:</b>
1. A mailbox with 2FA enabled
2. An App Password generated in your account settings
3. Use the App Password instead of your regular password

<b>🔐 Security:</b>
• Your password is kept in memory only while connected
• After a bot restart you must /login again
• Only a one-way audit digest is ever stored

<b>🆘 Support:</b>
If anything misbehaves, /logout and /login again.`

	b.sendMessage(ctx, msg.Chat.ID, text)
}

// handleLogin handles /login command
func (b *Bot) handleLogin(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	b.sendMessage(ctx, msg.Chat.ID, b.onboarding.Begin(msg.Chat.ID))
}

// handleLogout handles /logout command
func (b *Bot) handleLogout(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	// Any half-finished login flow dies with the session.
	b.onboarding.Cancel(chatID)

	session, ok := b.registry.Get(chatID)
	if !ok {
		b.sendMessage(ctx, chatID, "❌ <b>Not Connected!</b>\n\nUse /login to connect your mailbox.")
		return
	}

	email := session.Account.Email
	if err := b.monitor.Disconnect(ctx, chatID); err != nil {
		b.logger.Error("failed to disconnect", "chat_id", chatID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Error while disconnecting. Please try again.")
		return
	}

	b.logger.Info("user logged out", "chat_id", chatID, "email", email)
	b.sendMessage(ctx, chatID, fmt.Sprintf(`✅ <b>Logged Out Successfully!</b>

📧 Disconnected from: <code>%s</code>
🔄 Monitoring stopped

Use /login to connect again.`, email))
}

// handleStatus handles /status command
func (b *Bot) handleStatus(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	session, ok := b.registry.Get(chatID)
	if !ok || !b.monitor.Running(chatID) {
		b.sendMessage(ctx, chatID, `❌ <b>Status: Disconnected</b>

🔄 Not monitoring any mailbox
⏸️ No active session

Use /login to connect and start monitoring!`)
		return
	}

	stats, err := b.db.GetUsageStats(ctx, chatID)
	if err != nil {
		b.logger.Error("failed to get usage stats", "chat_id", chatID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Error retrieving status. Please try again.")
		return
	}
	stats.Monitoring = true

	b.sendMessage(ctx, chatID, b.formatter.FormatStatus(session.Account.Email, stats))
}

// handleStats handles /stats command
func (b *Bot) handleStats(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	stats, err := b.db.GetUsageStats(ctx, chatID)
	if errors.Is(err, database.ErrNotFound) {
		b.sendMessage(ctx, chatID, "❌ No statistics available. Use /login first.")
		return
	}
	if err != nil {
		b.logger.Error("failed to get usage stats", "chat_id", chatID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Error retrieving statistics. Please try again.")
		return
	}
	stats.Monitoring = b.monitor.Running(chatID)

	b.sendMessage(ctx, chatID, b.formatter.FormatStats(stats))
}
