package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/opsdeck/authcore/internal/models"
	"github.com/opsdeck/authcore/internal/verifier"
	pkglogger "github.com/opsdeck/authcore/pkg/logger"
)

// fakeStore is an in-memory Store that records the order of writes and
// removals and can be made to fail on chosen keys.
type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	ops    []string
	SetErr func(key string) error
	GetErr func(key string) error
	RemErr func(key string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		if err := f.GetErr(key); err != nil {
			return "", err
		}
	}
	value, ok := f.values[key]
	if !ok {
		return "", models.ErrNotFound
	}
	return value, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		if err := f.SetErr(key); err != nil {
			return err
		}
	}
	f.values[key] = value
	f.ops = append(f.ops, "set "+key)
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RemErr != nil {
		if err := f.RemErr(key); err != nil {
			return err
		}
	}
	delete(f.values, key)
	f.ops = append(f.ops, "remove "+key)
	return nil
}

func (f *fakeStore) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	return value, ok
}

func (f *fakeStore) has(key string) bool {
	_, ok := f.get(key)
	return ok
}

func (f *fakeStore) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// mockVerifier implements CredentialVerifier for testing
type mockVerifier struct {
	mu         sync.Mutex
	calls      int
	VerifyFunc func(ctx context.Context, identifier, secret string) (*verifier.Result, error)
}

func (m *mockVerifier) Verify(ctx context.Context, identifier, secret string) (*verifier.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, identifier, secret)
	}
	return nil, &verifier.Denial{Message: "invalid credentials"}
}

func (m *mockVerifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// NewTestAdmin creates an admin user for testing
func NewTestAdmin() models.User {
	return models.User{
		ID:    "usr_admin",
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
	}
}

// NewTestOperator creates a non-admin user with an explicit grant list
func NewTestOperator(permissions ...string) models.User {
	return models.User{
		ID:          "usr_operator",
		Email:       "operator@example.com",
		Role:        models.RoleOperator,
		Permissions: permissions,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
