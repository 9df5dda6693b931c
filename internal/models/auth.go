package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for institutional staff.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleSecretary   UserRole = "SECRETARY"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleStudent     UserRole = "STUDENT"
)

// JWTClaims represents the access token payload issued by the identity service.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	TenantID string     `json:"tenant_id"`
	Roles    []UserRole `json:"roles"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}

// TenantContext is the trusted request scope resolved from the session and the tenant row.
type TenantContext struct {
	TenantID     string
	AcademicType AcademicType
	ActorID      string
	ActorRoles   []UserRole
}

// HasRole reports whether the actor carries any of the given roles.
func (t TenantContext) HasRole(roles ...UserRole) bool {
	for _, have := range t.ActorRoles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
