package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/pkg/response"
)

// RequireRole returns a middleware that allows only callers carrying at
// least one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := c.Get(ContextIdentity)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		identity := val.(models.Identity)
		for _, r := range roles {
			if identity.HasRole(r) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
