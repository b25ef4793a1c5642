package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarochkin/otpgram/pkg/models"
)

// GetUsageStats builds the derived per-user statistics view: lifetime and
// today's counts plus the most recent events. The otp_events table is the
// source of truth here, not the in-memory counters.
func (db *DB) GetUsageStats(ctx context.Context, chatID int64) (*models.UsageStats, error) {
	account, err := db.GetAccount(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	today, err := db.CountEventsToday(ctx, chatID)
	if err != nil {
		return nil, err
	}

	recent, err := db.RecentEvents(ctx, chatID, 5)
	if err != nil {
		return nil, err
	}

	return &models.UsageStats{
		TotalOTPs:  account.TotalOTPs,
		TodayOTPs:  today,
		CreatedAt:  account.CreatedAt,
		LastActive: account.LastActive,
		Recent:     recent,
	}, nil
}

// CountAccounts returns total and active account counts.
func (db *DB) CountAccounts(ctx context.Context) (total, active int64, err error) {
	if err = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	if err = db.GetContext(ctx, &active, `SELECT COUNT(*) FROM users WHERE is_active = true`); err != nil {
		return 0, 0, fmt.Errorf("failed to count active accounts: %w", err)
	}
	return total, active, nil
}

// InsertSnapshot records one system_stats row.
func (db *DB) InsertSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}
	query := `
		INSERT INTO system_stats (total_users, active_users, total_otps_today, recorded_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, snap.TotalUsers, snap.ActiveUsers, snap.TotalOTPToday, snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}
