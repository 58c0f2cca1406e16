package services

import (
	"github.com/opsdeck/authcore/internal/models"
)

// PermissionService answers "may the current operator do X". It derives
// everything from the live session; there is no separate permission store to
// drift out of sync.
type PermissionService struct {
	sessions *SessionService
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(sessions *SessionService) *PermissionService {
	return &PermissionService{sessions: sessions}
}

// HasPermission reports whether the current operator holds the permission.
// Logged out means no. Admins hold every permission implicitly; everyone
// else needs an explicit grant.
func (s *PermissionService) HasPermission(permission string) bool {
	session := s.sessions.Current()
	if session == nil {
		return false
	}
	return models.HasPermission(session.User.Role, session.User.Permissions, permission)
}

// HasAnyPermission reports whether the current operator holds at least one
// of the given permissions. Used for menu-level gating where a section is
// visible if any of its actions are.
func (s *PermissionService) HasAnyPermission(permissions ...string) bool {
	session := s.sessions.Current()
	if session == nil {
		return false
	}
	for _, permission := range permissions {
		if models.HasPermission(session.User.Role, session.User.Permissions, permission) {
			return true
		}
	}
	return false
}

// Role returns the current operator's role, or the empty string when logged
// out.
func (s *PermissionService) Role() string {
	session := s.sessions.Current()
	if session == nil {
		return ""
	}
	return session.User.Role
}
