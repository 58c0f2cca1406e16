package models

// AuthOutcome is the value returned by session operations. Expected failure
// modes (invalid credentials, lockout, validation) are reported here rather
// than as errors so the UI can render them synchronously; only internal
// faults surface as errors.
type AuthOutcome struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failure builds an unsuccessful outcome with a user-facing message.
func Failure(message string) *AuthOutcome {
	return &AuthOutcome{Success: false, Message: message}
}
