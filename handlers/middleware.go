package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcatalog/catalog-service/auth"
)

const callerContextKey = "caller_context"

// AuthMiddleware validates the opaque API key and resolves it to a
// CallerContext (spec.md §6: "the core consumes a resolved (caller_id, role,
// brand_scope)"), generalized from the teacher's JWKS authMiddleware
// (cmd/main.go) down to a single HMAC validator.
func AuthMiddleware(validator *auth.APIKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateKey(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired API key", "details": err.Error()})
			c.Abort()
			return
		}

		c.Set(callerContextKey, validator.ExtractCallerContext(claims))
		c.Next()
	}
}

// RequireRole aborts the request with 403 unless the caller's role is one of
// allowed; enforcement of role -> operation is the adapter's job (spec.md §6).
func RequireRole(allowed ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerFromContext(c)
		for _, role := range allowed {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "caller role not permitted for this operation"})
		c.Abort()
	}
}

func callerFromContext(c *gin.Context) auth.CallerContext {
	v, ok := c.Get(callerContextKey)
	if !ok {
		return auth.CallerContext{}
	}
	caller, ok := v.(auth.CallerContext)
	if !ok {
		return auth.CallerContext{}
	}
	return caller
}
