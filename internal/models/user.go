package models

import (
	"time"
)

// Roles recognized by the console
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User is the operator identity returned by the credential verifier.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"` // e.g., "admin", "operator", "viewer"
	Permissions []string  `json:"permissions"`
	LoginTime   time.Time `json:"login_time"`
}
