package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/opsdeck/authcore/internal/config"
	"github.com/opsdeck/authcore/internal/models"
	"github.com/opsdeck/authcore/internal/store"
	"github.com/opsdeck/authcore/internal/verifier"
	pkglogger "github.com/opsdeck/authcore/pkg/logger"
)

// CredentialVerifier defines the interface to the backend that validates
// operator credentials
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (*verifier.Result, error)
}

// Credentials is the login input from the console form.
type Credentials struct {
	Identifier string
	Secret     string
}

// SessionService owns the console session: login, logout, rehydration on
// startup, refresh, and the auto-logout timer. All session mutation funnels
// through here; consumers only read.
type SessionService struct {
	mu       sync.Mutex
	store    store.Store
	verifier CredentialVerifier
	guard    *LockoutService
	activity *ActivityService
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
	config   config.SessionConfig

	current     *models.Session
	expiryTimer *time.Timer
	now         func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	st store.Store,
	cv CredentialVerifier,
	guard *LockoutService,
	activity *ActivityService,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	cfg config.SessionConfig,
) *SessionService {
	return &SessionService{
		store:    st,
		verifier: cv,
		guard:    guard,
		activity: activity,
		logger:   logger,
		audit:    audit,
		config:   cfg,
		now:      time.Now,
	}
}

// Login authenticates an operator. Expected failures (empty input, lockout,
// rejected credentials, unreachable backend) come back as an unsuccessful
// AuthOutcome; the error return is reserved for store faults.
func (s *SessionService) Login(ctx context.Context, creds Credentials) (*models.AuthOutcome, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" || creds.Secret == "" {
		// No lockout effect and no network call for validation failures
		return models.Failure("identifier and secret are required"), nil
	}

	if s.guard.IsBlocked(ctx) {
		remaining := s.guard.RemainingSeconds()
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			Username:      identifier,
			FailureReason: "lockout_active",
			Success:       false,
		})
		return models.Failure(fmt.Sprintf("too many failed attempts. try again in %d seconds", remaining)), nil
	}

	result, err := s.verifier.Verify(ctx, identifier, creds.Secret)
	if err != nil {
		return s.loginFailed(ctx, identifier, err)
	}

	now := s.now()
	user := result.User
	user.LoginTime = now

	session := &models.Session{
		Token:     result.Token,
		User:      user,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.config.TTL),
	}

	if err := s.persistSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	if err := s.guard.Reset(ctx); err != nil {
		s.logger.Error("failed to reset lockout state after login", slog.Any("error", err))
	}

	if err := s.activity.Append(ctx, models.ActivityActionLogin, models.ActivityDetails{
		"username": user.Email,
		"role":     user.Role,
	}); err != nil {
		s.logger.Error("failed to record login activity", slog.Any("error", err))
	}

	s.mu.Lock()
	s.current = session
	s.scheduleExpiryLocked(session)
	s.mu.Unlock()

	s.logger.Info("operator logged in",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
		slog.Time("expires_at", session.ExpiresAt))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  user.Email,
		Role:      user.Role,
		Success:   true,
	})

	return &models.AuthOutcome{Success: true, User: &user}, nil
}

// loginFailed records the failed attempt and builds the outcome. A transport
// failure counts toward the lockout the same as a rejection; exempting it
// would let an attacker probe freely by degrading the network.
func (s *SessionService) loginFailed(ctx context.Context, identifier string, verifyErr error) (*models.AuthOutcome, error) {
	state, err := s.guard.RecordFailure(ctx)
	if err != nil {
		s.logger.Error("failed to persist lockout state", slog.Any("error", err))
	}

	var message, reason string
	var denial *verifier.Denial
	switch {
	case errors.As(verifyErr, &denial):
		message = denial.Error()
		reason = "invalid_credentials"
	case errors.Is(verifyErr, models.ErrTransport):
		message = models.ErrTransport.Error()
		reason = "transport_error"
		s.logger.Warn("credential verification failed in transit", slog.Any("error", verifyErr))
	default:
		message = models.ErrInvalidCredentials.Error()
		reason = "invalid_credentials"
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Username:      identifier,
		FailureReason: reason,
		Success:       false,
	})

	// The guard was open on entry, so a block in the returned state means
	// this attempt triggered it
	if state.BlockedUntil != nil {
		remaining := state.RemainingSeconds(s.now())
		minutes := (remaining + 59) / 60
		s.audit.LogLockout(identifier, state.FailedAttempts, remaining)
		if err := s.activity.Append(ctx, models.ActivityActionLockout, models.ActivityDetails{
			"username": identifier,
		}); err != nil {
			s.logger.Error("failed to record lockout activity", slog.Any("error", err))
		}
		message = fmt.Sprintf("too many failed attempts. account locked for %d minutes", minutes)
	}

	return models.Failure(message), nil
}

// Logout ends the current session. Calling it while logged out is a no-op,
// and it always wins a race against a same-instant expiry firing.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	user := s.current.User
	s.scheduleExpiryLocked(nil)
	s.current = nil
	s.mu.Unlock()

	s.clearSessionKeys(ctx)

	if err := s.activity.Append(ctx, models.ActivityActionLogout, models.ActivityDetails{
		"username": user.Email,
		"role":     user.Role,
	}); err != nil {
		s.logger.Error("failed to record logout activity", slog.Any("error", err))
	}

	s.audit.LogSessionEvent("logout", user.Email, nil)
	s.logger.Info("operator logged out", slog.String("user_id", user.ID))
	return nil
}

// Rehydrate restores the session from the store at startup. A missing or
// unreadable key, or a persisted expiry in the past, yields logged-out and
// clears whatever session keys remain; this doubles as the corruption guard
// for partial writes.
func (s *SessionService) Rehydrate(ctx context.Context) error {
	token, err := s.store.Get(ctx, store.KeySessionToken)
	if err != nil {
		return s.rehydrateFailed(ctx, err, "session token")
	}

	userRaw, err := s.store.Get(ctx, store.KeySessionUser)
	if err != nil {
		return s.rehydrateFailed(ctx, err, "session user")
	}

	expiryRaw, err := s.store.Get(ctx, store.KeySessionExpiry)
	if err != nil {
		return s.rehydrateFailed(ctx, err, "session expiry")
	}

	var user models.User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		s.logger.Warn("discarding unreadable persisted session user", slog.Any("error", err))
		s.clearSessionKeys(ctx)
		return nil
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, expiryRaw)
	if err != nil {
		s.logger.Warn("discarding unreadable persisted session expiry", slog.String("value", expiryRaw))
		s.clearSessionKeys(ctx)
		return nil
	}

	now := s.now()
	if !now.Before(expiresAt) {
		// A normal lifecycle event, not an error: start logged out
		s.clearSessionKeys(ctx)
		s.audit.LogSessionEvent("session_expired", user.Email, map[string]string{"phase": "rehydrate"})
		s.logger.Info("persisted session expired, starting logged out",
			slog.String("user_id", user.ID),
			slog.Time("expired_at", expiresAt))
		return nil
	}

	session := &models.Session{
		Token:     token,
		User:      user,
		IssuedAt:  user.LoginTime,
		ExpiresAt: expiresAt,
	}

	s.mu.Lock()
	s.current = session
	s.scheduleExpiryLocked(session)
	s.mu.Unlock()

	s.logger.Info("session rehydrated",
		slog.String("user_id", user.ID),
		slog.Duration("remaining", session.Remaining(now)))
	return nil
}

func (s *SessionService) rehydrateFailed(ctx context.Context, err error, key string) error {
	if errors.Is(err, models.ErrNotFound) {
		// No (or a partial) persisted session: clear leftovers, start logged out
		s.clearSessionKeys(ctx)
		return nil
	}
	return fmt.Errorf("read %s: %w", key, err)
}

// Refresh extends the current session by one full TTL from now. It replaces
// the session with a new value and re-arms the expiry timer; the previous
// timer is cancelled first so auto-logout can never fire twice.
func (s *SessionService) Refresh(ctx context.Context) (*models.AuthOutcome, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return models.Failure("not authenticated"), nil
	}

	refreshed := *s.current
	refreshed.ExpiresAt = s.now().Add(s.config.TTL)
	s.current = &refreshed
	s.scheduleExpiryLocked(&refreshed)
	user := refreshed.User
	expiresAt := refreshed.ExpiresAt
	s.mu.Unlock()

	if err := s.store.Set(ctx, store.KeySessionExpiry, expiresAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("persist session expiry: %w", err)
	}

	s.logger.Info("session refreshed",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", expiresAt))
	return &models.AuthOutcome{Success: true, User: &user}, nil
}

// Current returns a snapshot of the active session, or nil when logged out.
func (s *SessionService) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	session := *s.current
	return &session
}

// IsAuthenticated reports whether an operator session is active.
func (s *SessionService) IsAuthenticated() bool {
	return s.Current() != nil
}

// scheduleExpiryLocked cancels any armed auto-logout timer and, for a
// non-nil session, arms a new one. Callers hold s.mu. Keeping exactly one
// timer handle here is what prevents a duplicated auto-logout after
// login/refresh churn.
func (s *SessionService) scheduleExpiryLocked(session *models.Session) {
	if s.expiryTimer != nil {
		s.expiryTimer.Stop()
		s.expiryTimer = nil
	}
	if session == nil {
		return
	}

	token := session.Token
	s.expiryTimer = time.AfterFunc(session.Remaining(s.now()), func() {
		s.expire(token)
	})
}

// expire is the auto-logout callback. It acts only if the session it was
// armed for is still current and genuinely past its expiry; a logout or
// refresh that happened in the meantime makes it a no-op.
func (s *SessionService) expire(token string) {
	s.mu.Lock()
	current := s.current
	if current == nil || current.Token != token || s.now().Before(current.ExpiresAt) {
		s.mu.Unlock()
		return
	}
	user := current.User
	s.current = nil
	s.expiryTimer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.clearSessionKeys(ctx)

	if err := s.activity.Append(ctx, models.ActivityActionSessionExpired, models.ActivityDetails{
		"username": user.Email,
		"role":     user.Role,
	}); err != nil {
		s.logger.Error("failed to record session expiry activity", slog.Any("error", err))
	}

	s.audit.LogSessionEvent("session_expired", user.Email, nil)
	s.logger.Info("session expired", slog.String("user_id", user.ID))
}

// persistSession writes the session keys with the expiry last, so a partial
// write always rehydrates as "no session".
func (s *SessionService) persistSession(ctx context.Context, session *models.Session) error {
	userRaw, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	if err := s.store.Set(ctx, store.KeySessionToken, session.Token); err != nil {
		return err
	}
	if err := s.store.Set(ctx, store.KeySessionUser, string(userRaw)); err != nil {
		return err
	}
	return s.store.Set(ctx, store.KeySessionExpiry, session.ExpiresAt.UTC().Format(time.RFC3339Nano))
}

// clearSessionKeys removes the session keys with the expiry first, the
// mirror image of persistSession's ordering.
func (s *SessionService) clearSessionKeys(ctx context.Context) {
	for _, key := range []string{store.KeySessionExpiry, store.KeySessionUser, store.KeySessionToken} {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.Error("failed to remove session key",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
}
