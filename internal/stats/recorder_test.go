package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarochkin/otpgram/pkg/models"
)

type fakeSnapshotStore struct {
	total     int64
	active    int64
	today     int64
	countErr  error
	snapshots []*models.Snapshot
}

func (s *fakeSnapshotStore) CountAccounts(context.Context) (int64, int64, error) {
	return s.total, s.active, s.countErr
}

func (s *fakeSnapshotStore) CountEventsToday(context.Context, int64) (int64, error) {
	return s.today, nil
}

func (s *fakeSnapshotStore) InsertSnapshot(_ context.Context, snap *models.Snapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return nil
}

type fixedCounter int

func (c fixedCounter) ActiveCount() int { return int(c) }

func TestRecord(t *testing.T) {
	store := &fakeSnapshotStore{total: 10, active: 4, today: 42}
	r := NewRecorder(store, fixedCounter(3), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.record(context.Background())

	require.Len(t, store.snapshots, 1)
	snap := store.snapshots[0]
	assert.Equal(t, int64(10), snap.TotalUsers)
	// Live sessions, not the persisted active flag, define "active".
	assert.Equal(t, int64(3), snap.ActiveUsers)
	assert.Equal(t, int64(42), snap.TotalOTPToday)
}

func TestRecordSkipsOnStoreError(t *testing.T) {
	store := &fakeSnapshotStore{countErr: errors.New("db locked")}
	r := NewRecorder(store, fixedCounter(0), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.record(context.Background())
	assert.Empty(t, store.snapshots)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeSnapshotStore{}
	r := NewRecorder(store, fixedCounter(0), time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.NotEmpty(t, store.snapshots)
}
