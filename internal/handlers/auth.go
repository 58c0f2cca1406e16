package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/authcore/internal/models"
	"github.com/opsdeck/authcore/internal/services"
	pkghttp "github.com/opsdeck/authcore/pkg/http"
)

// AuthHandler exposes the session lifecycle over HTTP for the console
// frontend. Expected login failures come back as 200 with an unsuccessful
// outcome body so the UI renders them inline; HTTP error statuses are
// reserved for protocol-level problems.
type AuthHandler struct {
	sessions    *services.SessionService
	guard       *services.LockoutService
	activity    *services.ActivityService
	permissions *services.PermissionService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	sessions *services.SessionService,
	guard *services.LockoutService,
	activity *services.ActivityService,
	permissions *services.PermissionService,
) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		guard:       guard,
		activity:    activity,
		permissions: permissions,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

// SessionResponse represents the active session
type SessionResponse struct {
	User      models.User `json:"user"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	Remaining int         `json:"remaining_seconds"`
}

// LockoutResponse represents the lockout state for the login form
type LockoutResponse struct {
	Blocked          bool `json:"blocked"`
	FailedAttempts   int  `json:"failed_attempts"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// PermissionResponse answers a single permission check
type PermissionResponse struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

// Login handles operator login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		// Same shape as a rejected login so the form has one failure path
		pkghttp.WriteJSON(w, http.StatusOK, models.Failure("identifier and secret are required"))
		return
	}

	outcome, err := h.sessions.Login(r.Context(), services.Credentials{
		Identifier: req.Identifier,
		Secret:     req.Secret,
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, outcome)
}

// Logout ends the current session. Safe to call when already logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh extends the current session by a full TTL
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.sessions.Refresh(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	if !outcome.Success {
		pkghttp.WriteUnauthorized(w, outcome.Message)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, outcome)
}

// Session returns the active session, or 401 when logged out
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Current()
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		User:      session.User,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
		Remaining: int(session.Remaining(time.Now()).Seconds()),
	})
}

// CheckPermission answers whether the current operator holds a permission.
// An unknown permission is not an error; it is simply never granted to a
// non-admin.
func (h *AuthHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	permission := chi.URLParam(r, "permission")
	if permission == "" {
		pkghttp.WriteBadRequest(w, "Permission is required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, PermissionResponse{
		Permission: permission,
		Granted:    h.permissions.HasPermission(permission),
	})
}

// Lockout reports the failed-attempt state for the login form countdown
func (h *AuthHandler) Lockout(w http.ResponseWriter, r *http.Request) {
	blocked := h.guard.IsBlocked(r.Context())
	state := h.guard.State()

	pkghttp.WriteJSON(w, http.StatusOK, LockoutResponse{
		Blocked:          blocked,
		FailedAttempts:   state.FailedAttempts,
		RemainingSeconds: h.guard.RemainingSeconds(),
	})
}

// Activity returns the full authentication history, oldest first. Gated on
// the audit permission; admins pass implicitly.
func (h *AuthHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.IsAuthenticated() {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}
	if !h.permissions.HasPermission(models.PermAuditRead) {
		pkghttp.WriteForbidden(w, "Audit access required")
		return
	}

	entries, err := h.activity.Entries(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
