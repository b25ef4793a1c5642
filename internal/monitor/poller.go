package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmarochkin/otpgram/internal/config"
	"github.com/dmarochkin/otpgram/internal/extract"
	"github.com/dmarochkin/otpgram/internal/formatter"
	"github.com/dmarochkin/otpgram/internal/mailbox"
	"github.com/dmarochkin/otpgram/internal/parser"
	"github.com/dmarochkin/otpgram/internal/registry"
	"github.com/dmarochkin/otpgram/pkg/models"
)

// maxPerCycle bounds how many unseen messages one cycle will process,
// newest first.
const maxPerCycle = 5

// EventStore is the durable side of a poll hit, implemented by *database.DB.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.OTPEvent) error
	IncrementOTPCount(ctx context.Context, chatID int64) error
}

// Dispatcher delivers a formatted notification, implemented by *notify.Notifier.
type Dispatcher interface {
	Send(ctx context.Context, chatID int64, html string) error
}

// Poller runs the scan loop for one account. One poller per live session;
// the session's PollState mutex guarantees at most one in-flight scan.
type Poller struct {
	session   *registry.Session
	dialer    mailbox.Dialer
	notifier  Dispatcher
	store     EventStore
	html      *parser.HTMLParser
	formatter *formatter.TelegramFormatter
	cfg       *config.Config
	logger    *slog.Logger

	monitoring atomic.Bool
	stopOnce   sync.Once
	stopCh     chan struct{}
	done       chan struct{}
}

func newPoller(session *registry.Session, deps ManagerDeps) *Poller {
	p := &Poller{
		session:   session,
		dialer:    deps.Dialer,
		notifier:  deps.Notifier,
		store:     deps.Store,
		html:      deps.HTMLParser,
		formatter: deps.Formatter,
		cfg:       deps.Config,
		logger: deps.Logger.With(
			"component", "poller",
			"chat_id", session.Account.ChatID,
			"email", session.Account.Email,
		),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.monitoring.Store(true)
	return p
}

// run repeats poll cycles until stopped. Transient failures switch to the
// error backoff interval; they never terminate the loop.
func (p *Poller) run() {
	defer close(p.done)
	p.logger.Info("monitoring started")

	for {
		if !p.monitoring.Load() {
			p.logger.Info("monitoring stopped")
			return
		}

		sleep := p.cfg.PollInterval
		if err := p.cycle(context.Background()); err != nil {
			p.logger.Error("poll cycle failed", "error", err)
			sleep = p.cfg.ErrorBackoff
		}

		select {
		case <-p.stopCh:
			p.logger.Info("monitoring stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// cycle performs one mailbox scan. The whole cycle runs under a bounded
// timeout so a hung mailbox call cannot pin the exclusive-access token.
func (p *Poller) cycle(ctx context.Context) error {
	state := p.session.Poll
	state.Lock()
	defer state.Unlock()

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.CycleTimeout)
	defer cancel()

	account := p.session.Account
	sess, err := p.dialer.Dial(ctx, account.Email, p.session.Password)
	if err != nil {
		return err
	}
	defer sess.Close()

	count, err := sess.MessageCount()
	if err != nil {
		return err
	}

	// Fast path: nothing new since the stored baseline.
	if count <= state.Baseline {
		if state.Baseline == 0 {
			state.Baseline = count
		}
		return nil
	}
	state.Baseline = count

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	ids, err := sess.SearchUnseenSince(today)
	if err != nil {
		return err
	}

	if len(ids) > maxPerCycle {
		ids = ids[len(ids)-maxPerCycle:]
	}

	// Newest first.
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if state.Seen.Seen(id) {
			continue
		}
		// Recorded before processing: a failure mid-message cannot cause a
		// second notification later in this process run.
		state.Seen.Add(id)

		msg, err := sess.Fetch(id)
		if err != nil {
			p.logger.Warn("failed to fetch message", "uid", id, "error", err)
			continue
		}

		code, ok := p.extractCode(msg)
		if !ok {
			continue
		}

		p.forward(ctx, msg, code, time.Since(start))
	}

	return nil
}

// extractCode tries the subject first, then the best-effort plaintext body.
func (p *Poller) extractCode(msg *mailbox.Message) (string, bool) {
	if code, ok := extract.Extract(msg.Subject); ok {
		return code, true
	}

	body := msg.BodyText
	if body == "" && msg.BodyHTML != "" {
		parsed, err := p.html.Parse(msg.BodyHTML)
		if err != nil {
			p.logger.Warn("failed to parse HTML body", "uid", msg.ID, "error", err)
		} else {
			body = parsed
		}
	}
	return extract.Extract(body)
}

// forward delivers the notification and records the event. The event is
// recorded even when delivery ultimately fails, and counters proceed
// optimistically past a store write error.
func (p *Poller) forward(ctx context.Context, msg *mailbox.Message, code string, latency time.Duration) {
	chatID := p.session.Account.ChatID
	event := &models.OTPEvent{
		ChatID:      chatID,
		SenderEmail: msg.SenderAddr,
		SenderName:  msg.SenderName,
		Code:        code,
		Subject:     msg.Subject,
		DetectionMS: latency.Milliseconds(),
		ForwardedAt: time.Now(),
	}

	if err := p.notifier.Send(ctx, chatID, p.formatter.FormatOTP(event)); err != nil {
		p.logger.Error("notification dropped", "uid", msg.ID, "error", err)
	}

	if err := p.store.InsertEvent(ctx, event); err != nil {
		p.logger.Error("failed to record otp event", "error", err)
	}
	if err := p.store.IncrementOTPCount(ctx, chatID); err != nil {
		p.logger.Error("failed to update otp counter", "error", err)
	}
	p.session.AddOTP()

	p.logger.Info("otp forwarded",
		"uid", msg.ID,
		"sender", msg.SenderAddr,
		"detection_ms", event.DetectionMS,
	)
}

// stop requests shutdown and waits for the loop to exit, up to timeout.
// Returns false when the loop was still running when the timeout expired;
// callers treat the poller as stopped regardless.
func (p *Poller) stop(timeout time.Duration) bool {
	p.monitoring.Store(false)
	p.stopOnce.Do(func() { close(p.stopCh) })

	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		p.logger.Warn("poller did not stop within timeout")
		return false
	}
}
