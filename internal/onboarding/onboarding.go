// Package onboarding implements the guided login exchange that collects and
// validates a mailbox address and app password before monitoring starts.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmarochkin/otpgram/internal/mailbox"
	"github.com/dmarochkin/otpgram/internal/monitor"
	"github.com/dmarochkin/otpgram/internal/registry"
	"github.com/dmarochkin/otpgram/pkg/models"
)

// State is the per-chat onboarding position.
type State int

const (
	StateIdle State = iota
	StateAwaitingEmail
	StateAwaitingPassword
)

const (
	promptEmail = `📧 <b>Mailbox Setup</b>

Please send your email address:

<i>💡 Make sure 2-factor authentication is enabled and you have created an App Password for your mailbox.</i>`

	promptInvalidEmail = `❌ <b>Invalid Email!</b>

Please send a valid email address:`

	promptPassword = `✅ <b>Email received:</b> <code>%s</code>

🔑 <b>Now send your App Password:</b>

<i>🔐 Use an App Password, not your regular password.
1. Open your account security settings
2. Enable 2-Step Verification
3. App Passwords → Generate new</i>`

	replyAuthFailed = `❌ <b>Connection Failed!</b>

<b>Possible issues:</b>
• Incorrect App Password
• 2FA not enabled
• Using a regular password instead of an App Password
• Incorrect email address

<i>Use /login to try again</i>`

	replyCapacity = `❌ <b>Server at capacity.</b>

Too many mailboxes are being monitored right now. Please try /login again later.`
)

// Machine holds the transient per-chat onboarding state. Nothing here is
// ever persisted; success or failure both clear the slot.
type Machine struct {
	registry *registry.Registry
	monitor  *monitor.Manager
	dialer   mailbox.Dialer
	logger   *slog.Logger

	mu     sync.Mutex
	states map[int64]State
	staged map[int64]string // captured address while awaiting the password
}

// New creates an onboarding machine.
func New(reg *registry.Registry, mon *monitor.Manager, dialer mailbox.Dialer, logger *slog.Logger) *Machine {
	return &Machine{
		registry: reg,
		monitor:  mon,
		dialer:   dialer,
		logger:   logger.With("component", "onboarding"),
		states:   make(map[int64]State),
		staged:   make(map[int64]string),
	}
}

// State returns the current onboarding state for a chat.
func (m *Machine) State(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[chatID]
}

// Begin starts the login flow. An active session short-circuits with a
// summary instead of changing state.
func (m *Machine) Begin(chatID int64) string {
	if session, ok := m.registry.Get(chatID); ok {
		return fmt.Sprintf(`✅ <b>Already Connected!</b>

📧 <b>Email:</b> %s
📊 <b>Total OTPs:</b> %d
🔄 <b>Status:</b> Active Monitoring

Use /logout to disconnect first.`, session.Account.Email, session.TotalOTPs())
	}

	m.mu.Lock()
	m.states[chatID] = StateAwaitingEmail
	delete(m.staged, chatID)
	m.mu.Unlock()

	return promptEmail
}

// Cancel discards any in-flight onboarding state for a chat.
func (m *Machine) Cancel(chatID int64) {
	m.mu.Lock()
	delete(m.states, chatID)
	delete(m.staged, chatID)
	m.mu.Unlock()
}

// Input feeds free text into the machine. The second return is false when
// the chat is Idle and the text is not an onboarding event.
func (m *Machine) Input(ctx context.Context, chatID int64, text string, profile models.Profile) (string, bool) {
	m.mu.Lock()
	state := m.states[chatID]
	m.mu.Unlock()

	switch state {
	case StateAwaitingEmail:
		return m.captureEmail(chatID, text), true
	case StateAwaitingPassword:
		return m.probeAndRegister(ctx, chatID, text, profile), true
	default:
		return "", false
	}
}

// captureEmail validates the address shape and advances to the password step.
// Invalid input keeps the state and repeats the prompt.
func (m *Machine) captureEmail(chatID int64, text string) string {
	address := strings.TrimSpace(text)
	if !strings.Contains(address, "@") || !strings.Contains(address, ".") {
		return promptInvalidEmail
	}

	m.mu.Lock()
	m.staged[chatID] = address
	m.states[chatID] = StateAwaitingPassword
	m.mu.Unlock()

	return fmt.Sprintf(promptPassword, address)
}

// probeAndRegister performs the live authentication probe with the staged
// address and the supplied credential. Success registers the account and
// schedules its poller; any failure returns the flow to Idle.
func (m *Machine) probeAndRegister(ctx context.Context, chatID int64, text string, profile models.Profile) string {
	m.mu.Lock()
	address := m.staged[chatID]
	m.mu.Unlock()
	password := strings.TrimSpace(text)

	// The flow always ends here, one way or the other.
	defer m.Cancel(chatID)

	if address == "" {
		return "❌ Something went wrong. Please start over with /login"
	}

	sess, err := m.dialer.Dial(ctx, address, password)
	if err != nil {
		// Raw detail stays in the log; the user gets actionable guidance.
		m.logger.Warn("authentication probe failed", "chat_id", chatID, "email", address, "error", err)
		return replyAuthFailed
	}
	sess.Close()

	session, err := m.registry.Register(ctx, chatID, address, password, profile)
	if err != nil {
		m.logger.Error("failed to register account", "chat_id", chatID, "error", err)
		return "❌ Error saving your account. Please try /login again."
	}

	if err := m.monitor.Start(session); err != nil {
		m.logger.Error("failed to start poller", "chat_id", chatID, "error", err)
		if derr := m.registry.Deactivate(ctx, chatID); derr != nil {
			m.logger.Error("failed to roll back registration", "chat_id", chatID, "error", derr)
		}
		return replyCapacity
	}

	return fmt.Sprintf(`✅ <b>Connected Successfully!</b>

📧 <b>Email:</b> <code>%s</code>
🚀 <b>Status:</b> Active Monitoring

🔄 <b>The bot is now watching your mailbox for OTPs!</b>

<i>💡 Use /status to check your connection anytime</i>`, address)
}
