package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/tenant"
)

// RequireManager aborts the request unless the authenticated user holds the
// owner or admin role in their tenant. Must run after auth.AuthRequired.
func RequireManager(tenantService tenant.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := auth.GetTenantID(c)
		userID := auth.GetUserID(c)
		if tenantID == "" || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ok, err := tenantService.IsManagerOrAbove(c.Request.Context(), tenantID, userID)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}

		c.Next()
	}
}
