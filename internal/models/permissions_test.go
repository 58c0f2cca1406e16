package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsdeck/authcore/internal/models"
)

func TestHasPermission_AdminIsSuperuser(t *testing.T) {
	assert.True(t, models.HasPermission(models.RoleAdmin, nil, models.PermSettingsWrite))
	assert.True(t, models.HasPermission(models.RoleAdmin, []string{}, "anything.at.all"))
}

func TestHasPermission_NonAdminLimitedToGrants(t *testing.T) {
	grants := []string{models.PermProductsRead, models.PermOrdersRead}

	assert.True(t, models.HasPermission(models.RoleOperator, grants, models.PermProductsRead))
	assert.False(t, models.HasPermission(models.RoleOperator, grants, models.PermProductsWrite))
	assert.False(t, models.HasPermission(models.RoleViewer, nil, models.PermProductsRead))
}

func TestIsValidPermission(t *testing.T) {
	assert.True(t, models.IsValidPermission(models.PermAuditRead))
	assert.False(t, models.IsValidPermission("reports.generate"))
	assert.False(t, models.IsValidPermission(""))
}
