package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/opsdeck/authcore/internal/models"
	"github.com/opsdeck/authcore/internal/store"
)

// LockoutConfig holds configuration for failed-attempt throttling.
//
// The lockout is a UX convenience for the console, not a security boundary:
// the backend keeps its own rate limits and remains the authority on whether
// credentials are ever checked.
type LockoutConfig struct {
	MaxFailedAttempts int
	BlockDuration     time.Duration
}

// DefaultLockoutConfig returns the standard 5-attempts / 15-minute policy.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxFailedAttempts: 5,
		BlockDuration:     15 * time.Minute,
	}
}

// LockoutService tracks consecutive failed login attempts and enforces a
// timed block. State lives in memory and is mirrored to the store so it
// survives a restart; an elapsed block is reset lazily on the next read.
type LockoutService struct {
	mu     sync.Mutex
	store  store.Store
	config LockoutConfig
	logger *slog.Logger
	state  models.LockoutState
	now    func() time.Time
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(st store.Store, config LockoutConfig, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		store:  st,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Rehydrate loads persisted lockout state. Missing keys mean a clean state;
// unreadable values are discarded rather than trusted.
func (s *LockoutService) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.LockoutState{}

	raw, err := s.store.Get(ctx, store.KeyLockoutAttempts)
	if err == nil {
		attempts, convErr := strconv.Atoi(raw)
		if convErr != nil {
			s.logger.Warn("discarding unreadable lockout attempt count", slog.String("value", raw))
			s.clearKeysLocked(ctx)
			return nil
		}
		state.FailedAttempts = attempts
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	raw, err = s.store.Get(ctx, store.KeyLockoutBlockedUntil)
	if err == nil {
		until, parseErr := time.Parse(time.RFC3339Nano, raw)
		if parseErr != nil {
			s.logger.Warn("discarding unreadable lockout block timestamp", slog.String("value", raw))
			s.clearKeysLocked(ctx)
			return nil
		}
		state.BlockedUntil = &until
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	s.state = state
	s.lazyResetLocked(ctx, s.now())
	return nil
}

// RecordFailure registers a failed login attempt and returns the updated
// state so the caller can render a countdown. Reaching the threshold starts
// the block window. A failure recorded while already blocked is a no-op:
// attempts cannot compound past the block, and the block is never extended.
func (s *LockoutService) RecordFailure(ctx context.Context) (models.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lazyResetLocked(ctx, now)

	if s.state.Blocked(now) {
		return s.state, nil
	}

	s.state.FailedAttempts++
	if s.state.FailedAttempts >= s.config.MaxFailedAttempts && s.state.BlockedUntil == nil {
		until := now.Add(s.config.BlockDuration)
		s.state.BlockedUntil = &until
		s.logger.Warn("login lockout triggered",
			slog.Int("failed_attempts", s.state.FailedAttempts),
			slog.Time("blocked_until", until))
	}

	return s.state, s.persistLocked(ctx)
}

// IsBlocked reports whether logins are currently blocked. An elapsed block
// is reset and the reset persisted as a side effect, so callers polling this
// (the UI countdown tick) observe the Open transition without a timer.
func (s *LockoutService) IsBlocked(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lazyResetLocked(ctx, now)
	return s.state.Blocked(now)
}

// Reset clears all lockout state; called after a successful login.
func (s *LockoutService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.LockoutState{}
	return s.clearKeysLocked(ctx)
}

// RemainingSeconds returns the seconds left in the block window, rounded up.
func (s *LockoutService) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.RemainingSeconds(s.now())
}

// State returns a snapshot of the current lockout state.
func (s *LockoutService) State() models.LockoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *LockoutService) lazyResetLocked(ctx context.Context, now time.Time) {
	if !s.state.Elapsed(now) {
		return
	}

	s.state = models.LockoutState{}
	if err := s.clearKeysLocked(ctx); err != nil {
		// Fail open: in-memory state is already reset, persistence catches up
		// on the next write
		s.logger.Error("failed to persist lockout reset", slog.Any("error", err))
	}
	s.logger.Info("lockout window elapsed, attempts reset")
}

// clearKeysLocked removes the block-until key first so a partial removal can
// never read back as a block with no recorded attempts.
func (s *LockoutService) clearKeysLocked(ctx context.Context) error {
	if err := s.store.Remove(ctx, store.KeyLockoutBlockedUntil); err != nil {
		return err
	}
	return s.store.Remove(ctx, store.KeyLockoutAttempts)
}

// persistLocked writes the attempt count before the block timestamp: a
// partial write reads back as attempts without a block, which the next
// failure promotes to a block again.
func (s *LockoutService) persistLocked(ctx context.Context) error {
	if err := s.store.Set(ctx, store.KeyLockoutAttempts, strconv.Itoa(s.state.FailedAttempts)); err != nil {
		return err
	}

	if s.state.BlockedUntil == nil {
		return s.store.Remove(ctx, store.KeyLockoutBlockedUntil)
	}
	return s.store.Set(ctx, store.KeyLockoutBlockedUntil, s.state.BlockedUntil.UTC().Format(time.RFC3339Nano))
}
