package formatter

import (
	"fmt"
	"strings"

	"github.com/dmarochkin/otpgram/pkg/models"
)

// TelegramFormatter renders bot messages with Telegram HTML markup.
type TelegramFormatter struct{}

// NewTelegramFormatter creates a new Telegram formatter
func NewTelegramFormatter() *TelegramFormatter {
	return &TelegramFormatter{}
}

// FormatOTP formats a forwarded-code notification.
func (f *TelegramFormatter) FormatOTP(event *models.OTPEvent) string {
	sender := event.SenderName
	if sender == "" {
		sender = event.SenderEmail
	}

	var sb strings.Builder
	sb.WriteString("<b>🚀 New OTP Code!</b>\n\n")
	sb.WriteString(fmt.Sprintf("<b>📧 From:</b> %s\n", f.escapeHTML(sender)))
	sb.WriteString(fmt.Sprintf("<b>📝 Subject:</b> %s\n", f.escapeHTML(event.Subject)))
	sb.WriteString(fmt.Sprintf("<b>⏰ Time:</b> %s\n", event.ForwardedAt.Format("15:04:05")))
	sb.WriteString(fmt.Sprintf("<b>🔢 Code:</b> <code>%s</code>", f.escapeHTML(event.Code)))
	return sb.String()
}

// FormatStats formats the /stats reply from a usage view.
func (f *TelegramFormatter) FormatStats(stats *models.UsageStats) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Your OTP Statistics</b>\n\n")
	sb.WriteString(fmt.Sprintf("📈 <b>All Time:</b> %d OTPs\n", stats.TotalOTPs))
	sb.WriteString(fmt.Sprintf("📅 <b>Today:</b> %d OTPs\n", stats.TodayOTPs))
	sb.WriteString(fmt.Sprintf("📥 <b>Account Created:</b> %s\n", stats.CreatedAt.Format("January 2, 2006")))
	sb.WriteString(fmt.Sprintf("⚡ <b>Last Active:</b> %s\n", stats.LastActive.Format("01/02 15:04")))

	status := "🔴 Inactive"
	if stats.Monitoring {
		status = "🟢 Active"
	}
	sb.WriteString(fmt.Sprintf("\n🔄 <b>Status:</b> %s\n", status))

	if len(stats.Recent) > 0 {
		sb.WriteString("\n<b>📈 Recent OTPs:</b>\n")
		for i, event := range stats.Recent {
			if i >= 3 {
				break
			}
			sender := event.SenderName
			if sender == "" {
				sender = event.SenderEmail
			}
			sb.WriteString(fmt.Sprintf("• %s: <code>%s</code> (%s)\n",
				f.escapeHTML(sender), f.escapeHTML(event.Code), event.ForwardedAt.Format("01/02 15:04")))
		}
	}
	return sb.String()
}

// FormatStatus formats the /status reply for a connected session.
func (f *TelegramFormatter) FormatStatus(email string, stats *models.UsageStats) string {
	return fmt.Sprintf(`✅ <b>Status: Connected & Active</b>

📧 <b>Email:</b> %s
🔄 <b>Monitoring:</b> ⚡ Active

📊 <b>Statistics:</b>
• Total OTPs: %d
• Today: %d

🚀 <b>The bot is actively monitoring your mailbox!</b>`,
		f.escapeHTML(email), stats.TotalOTPs, stats.TodayOTPs)
}

// escapeHTML escapes HTML special characters for Telegram
func (f *TelegramFormatter) escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
