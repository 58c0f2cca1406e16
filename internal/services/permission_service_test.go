package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/authcore/internal/models"
)

func loginAs(t *testing.T, user models.User) *sessionFixture {
	t.Helper()
	f := newSessionFixture(t, 8*time.Hour)
	f.acceptLogin(user, "tok_abc123")
	outcome, err := f.sessions.Login(context.Background(), Credentials{Identifier: user.Email, Secret: "hunter2"})
	require.NoError(t, err)
	require.True(t, outcome.Success)
	return f
}

func TestPermissionServiceHasPermission_LoggedOutDeniesEverything(t *testing.T) {
	f := newSessionFixture(t, 8*time.Hour)
	perms := NewPermissionService(f.sessions)

	assert.False(t, perms.HasPermission(models.PermProductsRead))
	assert.False(t, perms.HasAnyPermission(models.PermProductsRead, models.PermOrdersRead))
	assert.Empty(t, perms.Role())
}

func TestPermissionServiceHasPermission_AdminHoldsEverything(t *testing.T) {
	f := loginAs(t, NewTestAdmin())
	perms := NewPermissionService(f.sessions)

	for permission := range models.AllValidPermissions {
		assert.True(t, perms.HasPermission(permission), permission)
	}
	// Admins pass even for permissions outside the known set
	assert.True(t, perms.HasPermission("reports.generate"))
	assert.Equal(t, models.RoleAdmin, perms.Role())
}

func TestPermissionServiceHasPermission_NonAdminNeedsExplicitGrant(t *testing.T) {
	f := loginAs(t, NewTestOperator(models.PermProductsRead, models.PermOrdersRead))
	perms := NewPermissionService(f.sessions)

	assert.True(t, perms.HasPermission(models.PermProductsRead))
	assert.True(t, perms.HasPermission(models.PermOrdersRead))
	assert.False(t, perms.HasPermission(models.PermProductsWrite))
	assert.False(t, perms.HasPermission(models.PermSettingsWrite))
}

func TestPermissionServiceHasPermission_EmptyGrantListDeniesAll(t *testing.T) {
	f := loginAs(t, NewTestOperator())
	perms := NewPermissionService(f.sessions)

	for permission := range models.AllValidPermissions {
		assert.False(t, perms.HasPermission(permission), permission)
	}
}

func TestPermissionServiceHasAnyPermission_OneGrantSuffices(t *testing.T) {
	f := loginAs(t, NewTestOperator(models.PermOrdersRead))
	perms := NewPermissionService(f.sessions)

	assert.True(t, perms.HasAnyPermission(models.PermProductsWrite, models.PermOrdersRead))
	assert.False(t, perms.HasAnyPermission(models.PermProductsWrite, models.PermSettingsWrite))
}

func TestPermissionServiceHasPermission_RevokedAfterLogout(t *testing.T) {
	f := loginAs(t, NewTestAdmin())
	perms := NewPermissionService(f.sessions)
	require.True(t, perms.HasPermission(models.PermAuditRead))

	require.NoError(t, f.sessions.Logout(context.Background()))
	assert.False(t, perms.HasPermission(models.PermAuditRead))
}
