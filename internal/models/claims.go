package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// User permissions
	PermissionBalanceRead      = "balance:read"
	PermissionQRRead           = "qr:read"
	PermissionNotificationRead = "notification:read"
	PermissionChangePassword   = "user:change-password"

	// Collector permissions
	PermissionScanWrite = "scan:write"
	PermissionScanRead  = "scan:read"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionBalanceRead,
			PermissionQRRead,
			PermissionNotificationRead,
			PermissionChangePassword,
			PermissionScanWrite,
			PermissionScanRead,
			PermissionReadAdmin,
			PermissionWriteAdmin,
		}
	case RoleCollector:
		return []string{
			PermissionBalanceRead,
			PermissionQRRead,
			PermissionNotificationRead,
			PermissionChangePassword,
			PermissionScanWrite,
			PermissionScanRead,
		}
	case RoleUser:
		return []string{
			PermissionBalanceRead,
			PermissionQRRead,
			PermissionNotificationRead,
			PermissionChangePassword,
		}
	default:
		return []string{}
	}
}
