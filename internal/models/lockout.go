package models

import (
	"math"
	"time"
)

// LockoutState tracks consecutive failed login attempts.
// Invariant: BlockedUntil is set if and only if FailedAttempts has reached
// the configured threshold. Once the block elapses the next read resets the
// state to zero.
type LockoutState struct {
	FailedAttempts int        `json:"failed_attempts"`
	BlockedUntil   *time.Time `json:"blocked_until,omitempty"`
}

// Blocked reports whether the state is inside an active block window.
func (s LockoutState) Blocked(now time.Time) bool {
	return s.BlockedUntil != nil && now.Before(*s.BlockedUntil)
}

// Elapsed reports whether a block was set and has since passed.
func (s LockoutState) Elapsed(now time.Time) bool {
	return s.BlockedUntil != nil && !now.Before(*s.BlockedUntil)
}

// RemainingSeconds returns the seconds left in the block window, rounded up.
func (s LockoutState) RemainingSeconds(now time.Time) int {
	if s.BlockedUntil == nil {
		return 0
	}
	secs := int(math.Ceil(s.BlockedUntil.Sub(now).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}
