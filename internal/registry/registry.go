// Package registry owns the Account and PollState lifecycle. All per-session
// state lives behind this boundary; nothing else holds session-keyed maps.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmarochkin/otpgram/pkg/models"
)

const (
	dedupCapacity = 100
	dedupBatch    = 50
)

// Store is the durable side of the registry, implemented by *database.DB.
type Store interface {
	UpsertAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, chatID int64) (*models.Account, error)
	SetAccountActive(ctx context.Context, chatID int64, active bool) error
	LoadActiveAccounts(ctx context.Context) ([]*models.Account, error)
}

// PollState is the in-memory scan state of one account. It is owned by the
// account's single poller; the mutex is the exclusive-access token keeping
// two cycles for the same account from overlapping.
type PollState struct {
	mu       sync.Mutex
	Baseline uint32
	Seen     *DedupCache
}

// Lock acquires the exclusive-access token. Non-reentrant; an overdue cycle
// waits here instead of running concurrently.
func (p *PollState) Lock() { p.mu.Lock() }

// Unlock releases the exclusive-access token.
func (p *PollState) Unlock() { p.mu.Unlock() }

// Session is a live, credentialed account. The password exists only here and
// only while the session is active; it is what each poll cycle logs in with.
type Session struct {
	Account  *models.Account
	Password string
	Poll     *PollState

	countMu sync.Mutex
}

// AddOTP bumps the session's optimistic in-memory counter.
func (s *Session) AddOTP() {
	s.countMu.Lock()
	s.Account.TotalOTPs++
	s.Account.LastActive = time.Now()
	s.countMu.Unlock()
}

// TotalOTPs returns the current in-memory lifetime counter.
func (s *Session) TotalOTPs() int64 {
	s.countMu.Lock()
	defer s.countMu.Unlock()
	return s.Account.TotalOTPs
}

// Registry is the session-keyed account store.
type Registry struct {
	store  Store
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[int64]*Session
}

// New creates a registry backed by the given store.
func New(store Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		logger:   logger.With("component", "registry"),
		sessions: make(map[int64]*Session),
	}
}

// Register persists the account (insert-or-replace keyed by chat ID), seeds
// its poll state and returns the live session. Safe to call concurrently for
// distinct chat IDs.
func (r *Registry) Register(ctx context.Context, chatID int64, email, password string, profile models.Profile) (*Session, error) {
	account := &models.Account{
		ChatID:       chatID,
		Username:     profile.Username,
		FirstName:    profile.FirstName,
		Email:        email,
		PasswordHash: CredentialDigest(password, chatID),
		IsActive:     true,
	}

	// Carry the lifetime counter across re-logins of a known account.
	if existing := r.dormantTotal(ctx, chatID); existing > 0 {
		account.TotalOTPs = existing
	}

	if err := r.store.UpsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	session := &Session{
		Account:  account,
		Password: password,
		Poll: &PollState{
			Seen: NewDedupCache(dedupCapacity, dedupBatch),
		},
	}

	r.mu.Lock()
	r.sessions[chatID] = session
	r.mu.Unlock()

	r.logger.Info("account registered", "chat_id", chatID, "email", email)
	return session, nil
}

// Deactivate marks the account inactive and releases every in-memory
// structure for the session. The caller must have stopped the account's
// poller first.
func (r *Registry) Deactivate(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	_, ok := r.sessions[chatID]
	delete(r.sessions, chatID)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active session for chat %d", chatID)
	}

	if err := r.store.SetAccountActive(ctx, chatID, false); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	r.logger.Info("account deactivated", "chat_id", chatID)
	return nil
}

// Get returns the live session for a chat ID, if any.
func (r *Registry) Get(chatID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[chatID]
	return session, ok
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// LoadAll restores account metadata and counters from the store at startup.
// Credentials are not recoverable, so no sessions are created: every loaded
// account stays dormant until its holder logs in again.
func (r *Registry) LoadAll(ctx context.Context) ([]*models.Account, error) {
	accounts, err := r.store.LoadActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		r.logger.Info("loaded dormant account",
			"chat_id", account.ChatID,
			"email", account.Email,
			"total_otps", account.TotalOTPs,
		)
	}
	return accounts, nil
}

func (r *Registry) dormantTotal(ctx context.Context, chatID int64) int64 {
	account, err := r.store.GetAccount(ctx, chatID)
	if err != nil {
		return 0
	}
	return account.TotalOTPs
}

// CredentialDigest computes the salted audit digest of a mailbox credential.
// It is intentionally one-way: the plaintext cannot be restored, which is why
// a restart requires re-authentication.
func CredentialDigest(password string, chatID int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s_%d", password, chatID))
	return hex.EncodeToString(sum[:])
}
