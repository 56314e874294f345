package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/pkg/response"
)

const (
	// ContextIdentity is the key for the resolved caller identity in gin context.
	ContextIdentity = "identity"
	// ContextTokenJTI is the key for the current token's jti in gin context.
	ContextTokenJTI = "token_jti"
)

// ValidateFunc parses a bearer token into the caller's identity and jti.
type ValidateFunc func(token string) (models.Identity, string, error)

// SessionChecker reports whether a token's jti is still active (not revoked
// by logout).
type SessionChecker interface {
	Valid(ctx context.Context, jti string) (bool, error)
}

// JWT returns a middleware that validates the bearer token, confirms its
// session is still active, and stores the caller identity in context.
func JWT(validate ValidateFunc, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		identity, jti, err := validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		active, err := sessions.Valid(c.Request.Context(), jti)
		if err != nil {
			response.Internal(c, "session check failed")
			c.Abort()
			return
		}
		if !active {
			response.Unauthorized(c, "session revoked")
			c.Abort()
			return
		}

		c.Set(ContextIdentity, identity)
		c.Set(ContextTokenJTI, jti)
		c.Next()
	}
}

// CallerIdentity returns the identity stored by the JWT middleware.
func CallerIdentity(c *gin.Context) models.Identity {
	return c.MustGet(ContextIdentity).(models.Identity)
}
