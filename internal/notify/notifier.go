// Package notify delivers chat messages with a bounded retry budget.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Transport sends one formatted message to a chat session.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, html string) error
}

// Notifier retries delivery a fixed number of times with a pause between
// attempts. After the budget is exhausted the failure is logged and returned;
// callers proceed regardless, so a persistently failing transport drops the
// delivery without blocking the poll loop.
type Notifier struct {
	transport Transport
	logger    *slog.Logger
	attempts  int
	pause     time.Duration
}

// New creates a notifier with the default budget of 3 attempts, 1s apart.
func New(transport Transport, logger *slog.Logger) *Notifier {
	return &Notifier{
		transport: transport,
		logger:    logger.With("component", "notifier"),
		attempts:  3,
		pause:     time.Second,
	}
}

// WithBudget overrides the retry budget. Used by tests.
func (n *Notifier) WithBudget(attempts int, pause time.Duration) *Notifier {
	n.attempts = attempts
	n.pause = pause
	return n
}

// Send delivers a message, retrying on any transport error.
func (n *Notifier) Send(ctx context.Context, chatID int64, html string) error {
	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		err := n.transport.SendMessage(ctx, chatID, html)
		if err == nil {
			return nil
		}
		lastErr = err
		n.logger.Warn("message send failed",
			"chat_id", chatID,
			"attempt", attempt,
			"error", err,
		)

		if attempt < n.attempts {
			select {
			case <-time.After(n.pause):
			case <-ctx.Done():
				return fmt.Errorf("delivery cancelled: %w", ctx.Err())
			}
		}
	}

	n.logger.Error("delivery failed, dropping message", "chat_id", chatID, "attempts", n.attempts)
	return fmt.Errorf("delivery failed after %d attempts: %w", n.attempts, lastErr)
}
