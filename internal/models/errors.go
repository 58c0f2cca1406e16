package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("key not found")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	// Login failure taxonomy
	ErrValidation         = errors.New("identifier and secret are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("too many failed attempts")
	ErrTransport          = errors.New("could not reach authentication server")

	// SessionExpired is a normal lifecycle event, not a user-facing error
	ErrSessionExpired = errors.New("session expired")
)
