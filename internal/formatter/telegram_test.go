package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarochkin/otpgram/pkg/models"
)

func TestFormatOTP(t *testing.T) {
	f := NewTelegramFormatter()

	event := &models.OTPEvent{
		SenderName:  "Example <Service>",
		SenderEmail: "noreply@example.com",
		Code:        "482913",
		Subject:     "Sign-in & verify",
		ForwardedAt: time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC),
	}

	text := f.FormatOTP(event)
	assert.Contains(t, text, "<code>482913</code>")
	assert.Contains(t, text, "Example &lt;Service&gt;")
	assert.Contains(t, text, "Sign-in &amp; verify")
	assert.Contains(t, text, "14:30:05")
}

func TestFormatOTPFallsBackToSenderAddress(t *testing.T) {
	f := NewTelegramFormatter()

	text := f.FormatOTP(&models.OTPEvent{SenderEmail: "noreply@example.com", Code: "1234"})
	assert.Contains(t, text, "noreply@example.com")
}

func TestFormatStats(t *testing.T) {
	f := NewTelegramFormatter()

	stats := &models.UsageStats{
		TotalOTPs:  42,
		TodayOTPs:  3,
		CreatedAt:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Monitoring: true,
		Recent: []models.OTPEvent{
			{SenderEmail: "a@example.com", Code: "111111"},
			{SenderEmail: "b@example.com", Code: "222222"},
			{SenderEmail: "c@example.com", Code: "333333"},
			{SenderEmail: "d@example.com", Code: "444444"},
		},
	}

	text := f.FormatStats(stats)
	assert.Contains(t, text, "42 OTPs")
	assert.Contains(t, text, "3 OTPs")
	assert.Contains(t, text, "🟢 Active")
	assert.Contains(t, text, "January 15, 2026")

	// Only the three most recent events are listed.
	assert.Contains(t, text, "111111")
	assert.Contains(t, text, "333333")
	assert.NotContains(t, text, "444444")
}

func TestFormatStatsInactive(t *testing.T) {
	f := NewTelegramFormatter()

	text := f.FormatStats(&models.UsageStats{})
	assert.Contains(t, text, "🔴 Inactive")
}

func TestFormatStatus(t *testing.T) {
	f := NewTelegramFormatter()

	text := f.FormatStatus("user@gmail.com", &models.UsageStats{TotalOTPs: 10, TodayOTPs: 2})
	assert.Contains(t, text, "user@gmail.com")
	assert.Contains(t, text, "Total OTPs: 10")
	assert.Contains(t, text, "Today: 2")
}
