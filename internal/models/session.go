package models

import "time"

// Session is the authenticated state of the console. It is immutable once
// created: a refresh produces a new Session value with a later expiry, it
// never mutates an existing one in place.
type Session struct {
	Token     string    `json:"token"` // opaque, issued by the backend
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's expiry has passed at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining returns the time left until expiry, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
