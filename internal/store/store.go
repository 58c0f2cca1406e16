package store

import "context"

// Storage keys for session, lockout, and activity state. Values are
// JSON-encoded by the owning service unless noted.
const (
	KeySessionToken  = "session.token"      // opaque string
	KeySessionUser   = "session.user"       // User JSON
	KeySessionExpiry = "session.expires_at" // RFC 3339 timestamp

	KeyLockoutAttempts     = "lockout.failed_attempts" // integer string
	KeyLockoutBlockedUntil = "lockout.blocked_until"   // RFC 3339 timestamp

	KeyActivityLog = "activity.log" // JSON array of ActivityLogEntry
)

// Store is a durable string key/value store. It makes no atomicity guarantee
// across keys: callers order multi-key writes so that a partial write always
// reads back as "no session" (the expiry key is written last on login and
// removed first on logout).
type Store interface {
	// Get returns the value for key, or models.ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
