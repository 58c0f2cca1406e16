package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/authcore/internal/store"
)

func newTestLockout(st store.Store) *LockoutService {
	return NewLockoutService(st, DefaultLockoutConfig(), newTestLogger())
}

func TestLockoutServiceRecordFailure_BlocksAtThreshold(t *testing.T) {
	fs := newFakeStore()
	guard := newTestLockout(fs)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	guard.now = fixedClock(base)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		state, err := guard.RecordFailure(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, state.FailedAttempts)
		assert.Nil(t, state.BlockedUntil)
		assert.False(t, guard.IsBlocked(ctx))
	}

	state, err := guard.RecordFailure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, state.FailedAttempts)
	require.NotNil(t, state.BlockedUntil)
	assert.Equal(t, base.Add(15*time.Minute), *state.BlockedUntil)
	assert.True(t, guard.IsBlocked(ctx))
	assert.Equal(t, 15*60, guard.RemainingSeconds())
}

func TestLockoutServiceRecordFailure_NoOpWhileBlocked(t *testing.T) {
	fs := newFakeStore()
	guard := newTestLockout(fs)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	guard.now = fixedClock(base)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.RecordFailure(ctx)
		require.NoError(t, err)
	}
	blockedUntil := *guard.State().BlockedUntil

	// Further failures inside the window neither extend the block nor
	// inflate the counter
	guard.now = fixedClock(base.Add(5 * time.Minute))
	state, err := guard.RecordFailure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, state.FailedAttempts)
	assert.Equal(t, blockedUntil, *state.BlockedUntil)
}

func TestLockoutServiceIsBlocked_ResetsAfterWindowElapses(t *testing.T) {
	fs := newFakeStore()
	guard := newTestLockout(fs)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	guard.now = fixedClock(base)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.RecordFailure(ctx)
		require.NoError(t, err)
	}
	assert.True(t, guard.IsBlocked(ctx))

	guard.now = fixedClock(base.Add(15*time.Minute + time.Second))
	assert.False(t, guard.IsBlocked(ctx))

	state := guard.State()
	assert.Zero(t, state.FailedAttempts)
	assert.Nil(t, state.BlockedUntil)
	assert.False(t, fs.has(store.KeyLockoutAttempts))
	assert.False(t, fs.has(store.KeyLockoutBlockedUntil))
}

func TestLockoutServiceRehydrate_RestoresPersistedBlock(t *testing.T) {
	fs := newFakeStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	until := base.Add(10 * time.Minute)
	require.NoError(t, fs.Set(context.Background(), store.KeyLockoutAttempts, "5"))
	require.NoError(t, fs.Set(context.Background(), store.KeyLockoutBlockedUntil, until.Format(time.RFC3339Nano)))

	guard := newTestLockout(fs)
	guard.now = fixedClock(base)
	ctx := context.Background()

	require.NoError(t, guard.Rehydrate(ctx))
	assert.True(t, guard.IsBlocked(ctx))
	assert.Equal(t, 10*60, guard.RemainingSeconds())
}

func TestLockoutServiceRehydrate_ExpiredBlockStartsClean(t *testing.T) {
	fs := newFakeStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	until := base.Add(-time.Minute)
	require.NoError(t, fs.Set(context.Background(), store.KeyLockoutAttempts, "5"))
	require.NoError(t, fs.Set(context.Background(), store.KeyLockoutBlockedUntil, until.Format(time.RFC3339Nano)))

	guard := newTestLockout(fs)
	guard.now = fixedClock(base)
	ctx := context.Background()

	require.NoError(t, guard.Rehydrate(ctx))
	assert.False(t, guard.IsBlocked(ctx))
	assert.Zero(t, guard.State().FailedAttempts)
	assert.False(t, fs.has(store.KeyLockoutAttempts))
}

func TestLockoutServiceRehydrate_DiscardsUnreadableState(t *testing.T) {
	fs := newFakeStore()
	require.NoError(t, fs.Set(context.Background(), store.KeyLockoutAttempts, "not-a-number"))

	guard := newTestLockout(fs)
	ctx := context.Background()

	require.NoError(t, guard.Rehydrate(ctx))
	assert.Zero(t, guard.State().FailedAttempts)
	assert.False(t, fs.has(store.KeyLockoutAttempts))
}

func TestLockoutServiceReset_ClearsStateAndKeys(t *testing.T) {
	fs := newFakeStore()
	guard := newTestLockout(fs)
	ctx := context.Background()

	_, err := guard.RecordFailure(ctx)
	require.NoError(t, err)
	require.NoError(t, guard.Reset(ctx))

	assert.Zero(t, guard.State().FailedAttempts)
	assert.False(t, fs.has(store.KeyLockoutAttempts))
	assert.False(t, fs.has(store.KeyLockoutBlockedUntil))
}

func TestLockoutServicePersist_WritesAttemptsBeforeBlock(t *testing.T) {
	fs := newFakeStore()
	guard := newTestLockout(fs)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	guard.now = fixedClock(base)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.RecordFailure(ctx)
		require.NoError(t, err)
	}

	var attemptsIdx, blockIdx int
	for i, op := range fs.opLog() {
		switch op {
		case "set " + store.KeyLockoutAttempts:
			attemptsIdx = i
		case "set " + store.KeyLockoutBlockedUntil:
			blockIdx = i
		}
	}
	assert.Less(t, attemptsIdx, blockIdx)
}
