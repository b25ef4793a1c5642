// Package monitor supervises the per-account poll loops.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dmarochkin/otpgram/internal/config"
	"github.com/dmarochkin/otpgram/internal/formatter"
	"github.com/dmarochkin/otpgram/internal/mailbox"
	"github.com/dmarochkin/otpgram/internal/parser"
	"github.com/dmarochkin/otpgram/internal/registry"
)

// ErrSessionLimit is returned when the live-session cap is reached.
var ErrSessionLimit = errors.New("session capacity reached")

// ManagerDeps dependencies for creating a manager
type ManagerDeps struct {
	Config     *config.Config
	Registry   *registry.Registry
	Dialer     mailbox.Dialer
	Notifier   Dispatcher
	Store      EventStore
	HTMLParser *parser.HTMLParser
	Formatter  *formatter.TelegramFormatter
	Logger     *slog.Logger
}

// Manager is the supervised task set: one poller per live session, with
// explicit start/stop/await-termination semantics and a hard cap on
// concurrent sessions.
type Manager struct {
	deps     ManagerDeps
	registry *registry.Registry
	logger   *slog.Logger
	sem      *semaphore.Weighted

	mu      sync.Mutex
	pollers map[int64]*Poller
}

// NewManager creates a poller supervisor.
func NewManager(deps ManagerDeps) *Manager {
	return &Manager{
		deps:     deps,
		registry: deps.Registry,
		logger:   deps.Logger.With("component", "monitor"),
		sem:      semaphore.NewWeighted(deps.Config.MaxSessions),
		pollers:  make(map[int64]*Poller),
	}
}

// Start schedules a poller for the session. Fails with ErrSessionLimit when
// the cap is reached instead of oversubscribing.
func (m *Manager) Start(session *registry.Session) error {
	chatID := session.Account.ChatID

	if !m.sem.TryAcquire(1) {
		return ErrSessionLimit
	}

	m.mu.Lock()
	if _, exists := m.pollers[chatID]; exists {
		m.mu.Unlock()
		m.sem.Release(1)
		return nil
	}
	p := newPoller(session, m.deps)
	m.pollers[chatID] = p
	m.mu.Unlock()

	go p.run()

	m.logger.Info("poller started", "chat_id", chatID, "email", session.Account.Email)
	return nil
}

// Stop halts the poller for a chat, waiting up to the shutdown timeout for
// the loop to exit. The poller is treated as stopped either way.
func (m *Manager) Stop(chatID int64) {
	m.mu.Lock()
	p, ok := m.pollers[chatID]
	delete(m.pollers, chatID)
	m.mu.Unlock()

	if !ok {
		return
	}

	p.stop(m.deps.Config.ShutdownTimeout)
	m.sem.Release(1)
	m.logger.Info("poller stopped", "chat_id", chatID)
}

// Disconnect stops the poller first, then deactivates the account and
// releases its in-memory state.
func (m *Manager) Disconnect(ctx context.Context, chatID int64) error {
	m.Stop(chatID)
	return m.registry.Deactivate(ctx, chatID)
}

// Running reports whether a poller is scheduled for the chat.
func (m *Manager) Running(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pollers[chatID]
	return ok
}

// StopAll halts every poller. Used during process shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	pollers := make(map[int64]*Poller, len(m.pollers))
	for id, p := range m.pollers {
		pollers[id] = p
		delete(m.pollers, id)
	}
	m.mu.Unlock()

	m.logger.Info("stopping all pollers", "count", len(pollers))
	var wg sync.WaitGroup
	for _, p := range pollers {
		wg.Add(1)
		go func(p *Poller) {
			defer wg.Done()
			p.stop(m.deps.Config.ShutdownTimeout)
			m.sem.Release(1)
		}(p)
	}
	wg.Wait()
	m.logger.Info("all pollers stopped")
}
