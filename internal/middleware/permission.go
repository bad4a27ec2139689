package middleware

import (
	"net/http"

	"savora/internal/authz"

	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on a permission action from the policy
// table. The check itself is a pure lookup; no handler annotations.
func RequirePermission(policies *authz.PolicySet, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !policies.Allowed(role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing permission: " + action})
			return
		}
		c.Next()
	}
}
