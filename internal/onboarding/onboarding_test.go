package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarochkin/otpgram/internal/config"
	"github.com/dmarochkin/otpgram/internal/formatter"
	"github.com/dmarochkin/otpgram/internal/mailbox"
	"github.com/dmarochkin/otpgram/internal/monitor"
	"github.com/dmarochkin/otpgram/internal/parser"
	"github.com/dmarochkin/otpgram/internal/registry"
	"github.com/dmarochkin/otpgram/pkg/models"
)

type fakeStore struct {
	accounts map[int64]*models.Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[int64]*models.Account)}
}

func (s *fakeStore) UpsertAccount(_ context.Context, account *models.Account) error {
	cp := *account
	s.accounts[account.ChatID] = &cp
	return nil
}

func (s *fakeStore) GetAccount(_ context.Context, chatID int64) (*models.Account, error) {
	account, ok := s.accounts[chatID]
	if !ok {
		return nil, errors.New("account not found")
	}
	cp := *account
	return &cp, nil
}

func (s *fakeStore) SetAccountActive(_ context.Context, chatID int64, active bool) error {
	if account, ok := s.accounts[chatID]; ok {
		account.IsActive = active
	}
	return nil
}

func (s *fakeStore) LoadActiveAccounts(_ context.Context) ([]*models.Account, error) {
	return nil, nil
}

func (s *fakeStore) InsertEvent(_ context.Context, _ *models.OTPEvent) error { return nil }
func (s *fakeStore) IncrementOTPCount(_ context.Context, _ int64) error      { return nil }

type emptySession struct{}

func (emptySession) MessageCount() (uint32, error)                 { return 0, nil }
func (emptySession) SearchUnseenSince(time.Time) ([]uint32, error) { return nil, nil }
func (emptySession) Fetch(uint32) (*mailbox.Message, error)        { return nil, errors.New("empty") }
func (emptySession) Close() error                                  { return nil }

type fakeDialer struct {
	err error
}

func (d *fakeDialer) Dial(_ context.Context, _, _ string) (mailbox.Session, error) {
	if d.err != nil {
		return nil, d.err
	}
	return emptySession{}, nil
}

type noopDispatcher struct{}

func (noopDispatcher) Send(context.Context, int64, string) error { return nil }

type fixture struct {
	machine  *Machine
	registry *registry.Registry
	monitor  *monitor.Manager
	store    *fakeStore
	dialer   *fakeDialer
}

func newFixture(t *testing.T, maxSessions int64) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()
	reg := registry.New(store, logger)
	dialer := &fakeDialer{}

	mon := monitor.NewManager(monitor.ManagerDeps{
		Config: &config.Config{
			PollInterval:    time.Millisecond,
			ErrorBackoff:    time.Millisecond,
			CycleTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			MaxSessions:     maxSessions,
		},
		Registry:   reg,
		Dialer:     dialer,
		Notifier:   noopDispatcher{},
		Store:      store,
		HTMLParser: parser.NewHTMLParser(),
		Formatter:  formatter.NewTelegramFormatter(),
		Logger:     logger,
	})
	t.Cleanup(mon.StopAll)

	return &fixture{
		machine:  New(reg, mon, dialer, logger),
		registry: reg,
		monitor:  mon,
		store:    store,
		dialer:   dialer,
	}
}

func TestBeginStartsEmailStep(t *testing.T) {
	f := newFixture(t, 10)

	reply := f.machine.Begin(100)
	assert.Contains(t, reply, "Mailbox Setup")
	assert.Equal(t, StateAwaitingEmail, f.machine.State(100))
}

func TestIdleTextIsNotHandled(t *testing.T) {
	f := newFixture(t, 10)

	_, handled := f.machine.Input(context.Background(), 100, "hello there", models.Profile{})
	assert.False(t, handled)
}

func TestInvalidEmailRepeatsPrompt(t *testing.T) {
	f := newFixture(t, 10)
	f.machine.Begin(100)

	reply, handled := f.machine.Input(context.Background(), 100, "not-an-address", models.Profile{})
	assert.True(t, handled)
	assert.Contains(t, reply, "Invalid Email")
	assert.Equal(t, StateAwaitingEmail, f.machine.State(100))
}

func TestValidEmailAdvancesToPassword(t *testing.T) {
	f := newFixture(t, 10)
	f.machine.Begin(100)

	reply, handled := f.machine.Input(context.Background(), 100, " user@gmail.com ", models.Profile{})
	assert.True(t, handled)
	assert.Contains(t, reply, "user@gmail.com")
	assert.Contains(t, reply, "App Password")
	assert.Equal(t, StateAwaitingPassword, f.machine.State(100))
}

func TestAuthFailureEndsFlowWithoutAccount(t *testing.T) {
	f := newFixture(t, 10)
	f.dialer.err = errors.New("LOGIN failed")

	ctx := context.Background()
	f.machine.Begin(100)
	f.machine.Input(ctx, 100, "user@gmail.com", models.Profile{})

	reply, handled := f.machine.Input(ctx, 100, "wrong-password", models.Profile{})
	assert.True(t, handled)
	assert.Contains(t, reply, "Connection Failed")
	// The generic guidance never leaks the server error detail.
	assert.NotContains(t, reply, "LOGIN failed")

	assert.Equal(t, StateIdle, f.machine.State(100))
	assert.Equal(t, 0, f.registry.ActiveCount())
	assert.Empty(t, f.store.accounts)
}

func TestSuccessfulLoginStartsMonitoring(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	f.machine.Begin(100)
	f.machine.Input(ctx, 100, "user@gmail.com", models.Profile{Username: "user", FirstName: "U"})

	reply, handled := f.machine.Input(ctx, 100, "app-password", models.Profile{Username: "user", FirstName: "U"})
	assert.True(t, handled)
	assert.Contains(t, reply, "Connected Successfully")
	assert.Equal(t, StateIdle, f.machine.State(100))

	session, ok := f.registry.Get(100)
	require.True(t, ok)
	assert.Equal(t, "user@gmail.com", session.Account.Email)
	assert.Equal(t, "app-password", session.Password)
	assert.True(t, f.monitor.Running(100))

	persisted := f.store.accounts[100]
	require.NotNil(t, persisted)
	assert.NotEqual(t, "app-password", persisted.PasswordHash)
}

func TestBeginWhileConnected(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	f.machine.Begin(100)
	f.machine.Input(ctx, 100, "user@gmail.com", models.Profile{})
	f.machine.Input(ctx, 100, "app-password", models.Profile{})

	reply := f.machine.Begin(100)
	assert.Contains(t, reply, "Already Connected")
	assert.Equal(t, StateIdle, f.machine.State(100))
}

func TestCapacityRefusalRollsBack(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	// First account takes the only slot.
	f.machine.Begin(1)
	f.machine.Input(ctx, 1, "first@gmail.com", models.Profile{})
	f.machine.Input(ctx, 1, "pw", models.Profile{})
	require.True(t, f.monitor.Running(1))

	f.machine.Begin(2)
	f.machine.Input(ctx, 2, "second@gmail.com", models.Profile{})
	reply, handled := f.machine.Input(ctx, 2, "pw", models.Profile{})
	assert.True(t, handled)
	assert.Contains(t, reply, "capacity")

	// The refused registration is rolled back completely.
	_, ok := f.registry.Get(2)
	assert.False(t, ok)
	assert.False(t, f.monitor.Running(2))
	assert.Equal(t, 1, f.registry.ActiveCount())
}

func TestCancelClearsFlow(t *testing.T) {
	f := newFixture(t, 10)

	f.machine.Begin(100)
	f.machine.Input(context.Background(), 100, "user@gmail.com", models.Profile{})
	f.machine.Cancel(100)
	assert.Equal(t, StateIdle, f.machine.State(100))
}
