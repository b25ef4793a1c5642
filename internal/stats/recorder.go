// Package stats periodically snapshots aggregate usage into the store.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmarochkin/otpgram/pkg/models"
)

// SnapshotStore is implemented by *database.DB.
type SnapshotStore interface {
	CountAccounts(ctx context.Context) (total, active int64, err error)
	CountEventsToday(ctx context.Context, chatID int64) (int64, error)
	InsertSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// SessionCounter reports how many sessions are live right now.
type SessionCounter interface {
	ActiveCount() int
}

// Recorder writes one system_stats row per interval until the context ends.
type Recorder struct {
	store    SnapshotStore
	sessions SessionCounter
	interval time.Duration
	logger   *slog.Logger
}

// NewRecorder creates a snapshot recorder.
func NewRecorder(store SnapshotStore, sessions SessionCounter, interval time.Duration, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:    store,
		sessions: sessions,
		interval: interval,
		logger:   logger.With("component", "stats"),
	}
}

// Run blocks, recording snapshots on the interval, until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.record(ctx)
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	total, _, err := r.store.CountAccounts(ctx)
	if err != nil {
		r.logger.Error("failed to count accounts", "error", err)
		return
	}

	today, err := r.store.CountEventsToday(ctx, 0)
	if err != nil {
		r.logger.Error("failed to count today's events", "error", err)
		return
	}

	snap := &models.Snapshot{
		TotalUsers:    total,
		ActiveUsers:   int64(r.sessions.ActiveCount()),
		TotalOTPToday: today,
	}
	if err := r.store.InsertSnapshot(ctx, snap); err != nil {
		r.logger.Error("failed to record snapshot", "error", err)
		return
	}

	r.logger.Debug("snapshot recorded",
		"total_users", snap.TotalUsers,
		"active_users", snap.ActiveUsers,
		"otps_today", snap.TotalOTPToday,
	)
}
