package models

import "time"

// Actions recorded in the activity log
const (
	ActivityActionLogin          = "login"
	ActivityActionLogout         = "logout"
	ActivityActionSessionExpired = "session_expired"
	ActivityActionLockout        = "lockout"
)

// ActivityDetails holds additional context for an activity entry
type ActivityDetails map[string]string

// ActivityLogEntry is one record in the append-only authentication log.
// Entries are kept in insertion order, oldest first.
type ActivityLogEntry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Details   ActivityDetails `json:"details,omitempty"`
}
