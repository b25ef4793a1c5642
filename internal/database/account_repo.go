package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmarochkin/otpgram/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// UpsertAccount inserts or replaces an account keyed by chat ID.
func (db *DB) UpsertAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT OR REPLACE INTO users (chat_id, username, first_name, email, password_hash, total_otps, is_active, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.LastActive = now

	_, err := db.ExecContext(ctx, query,
		account.ChatID,
		account.Username,
		account.FirstName,
		account.Email,
		account.PasswordHash,
		account.TotalOTPs,
		account.IsActive,
		account.CreatedAt,
		account.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// GetAccount returns an account by chat ID
func (db *DB) GetAccount(ctx context.Context, chatID int64) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM users WHERE chat_id = ?`
	err := db.GetContext(ctx, &account, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// LoadActiveAccounts returns all active accounts for restart recovery.
// Credentials are not recoverable; callers get metadata and counters only.
func (db *DB) LoadActiveAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM users WHERE is_active = true`
	err := db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load active accounts: %w", err)
	}
	return accounts, nil
}

// SetAccountActive sets the active flag of an account
func (db *DB) SetAccountActive(ctx context.Context, chatID int64, active bool) error {
	query := `UPDATE users SET is_active = ?, last_active = ? WHERE chat_id = ?`
	_, err := db.ExecContext(ctx, query, active, time.Now(), chatID)
	if err != nil {
		return fmt.Errorf("failed to set account active: %w", err)
	}
	return nil
}

// IncrementOTPCount bumps the lifetime counter and touches last_active.
func (db *DB) IncrementOTPCount(ctx context.Context, chatID int64) error {
	query := `UPDATE users SET total_otps = total_otps + 1, last_active = ? WHERE chat_id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), chatID)
	if err != nil {
		return fmt.Errorf("failed to increment otp count: %w", err)
	}
	return nil
}
