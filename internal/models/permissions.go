package models

// Permission constants define all valid console capabilities
const (
	// Catalog
	PermProductsRead    = "products.read"
	PermProductsWrite   = "products.write"
	PermCategoriesWrite = "categories.write"
	PermInventoryWrite  = "inventory.write"

	// Orders
	PermOrdersRead  = "orders.read"
	PermOrdersWrite = "orders.write"

	// Administration
	PermUsersRead     = "users.read"
	PermUsersWrite    = "users.write"
	PermSettingsWrite = "settings.write"
	PermContentWrite  = "content.write"
	PermAuditRead     = "audit.read"
)

// AllValidPermissions is the whitelist of known permissions
var AllValidPermissions = map[string]bool{
	PermProductsRead:    true,
	PermProductsWrite:   true,
	PermCategoriesWrite: true,
	PermInventoryWrite:  true,
	PermOrdersRead:      true,
	PermOrdersWrite:     true,
	PermUsersRead:       true,
	PermUsersWrite:      true,
	PermSettingsWrite:   true,
	PermContentWrite:    true,
	PermAuditRead:       true,
}

// IsValidPermission checks if a permission exists in the whitelist
func IsValidPermission(permission string) bool {
	return AllValidPermissions[permission]
}

// HasPermission checks whether a role plus declared permission set grants the
// required permission. The admin role is the superuser and is granted every
// permission unconditionally; every other role is limited to the permissions
// the backend declared for it.
func HasPermission(role string, permissions []string, required string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}
