package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextTenantKey is the gin context key storing the resolved TenantContext.
	ContextTenantKey = "currentTenant"
)

type sessionResolver interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
	ResolveTenant(ctx context.Context, claims *models.JWTClaims) (models.TenantContext, error)
}

// Tenant requires a valid access token and stores the caller's TenantContext.
func Tenant(sessions sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := sessions.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		tenant, err := sessions.ResolveTenant(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextTenantKey, tenant)
		c.Set(logger.TenantFieldKey, tenant.TenantID)
		c.Next()
	}
}

// TenantFromContext returns the TenantContext stored by Tenant.
func TenantFromContext(c *gin.Context) (models.TenantContext, bool) {
	value, exists := c.Get(ContextTenantKey)
	if !exists {
		return models.TenantContext{}, false
	}
	tenant, ok := value.(models.TenantContext)
	return tenant, ok
}

// RequireRoles lets the request through when the actor holds any of the roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := TenantFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !tenant.HasRole(roles...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
