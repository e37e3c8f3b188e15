package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/possync/backend/internal/interfaces/http/dto"
)

// TenantIDKey is the gin context key holding the resolved tenant ID
const TenantIDKey = "tenant_id"

// TenantHeader is the header clients use to scope requests to a tenant
const TenantHeader = "X-Tenant-ID"

// RequireTenant extracts and validates the tenant ID from the X-Tenant-ID
// header. Requests without a valid tenant ID are rejected.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "missing X-Tenant-ID header"))
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "invalid X-Tenant-ID header"))
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant ID set by RequireTenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	tenantID, ok := v.(uuid.UUID)
	return tenantID, ok
}
