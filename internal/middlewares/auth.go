package middlewares

import (
	"net/http"

	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

const identityContextKey = "identity"

// SessionMiddleware resolves the caller's session, if any, and stores the identity in the context.
// It never rejects a request.
func SessionMiddleware(resolver *services.SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := resolver.Resolve(c.Request); ok {
			c.Set(identityContextKey, identity)
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by SessionMiddleware.
func CurrentIdentity(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*services.Identity)
	return identity, ok && identity != nil
}

// RequireSession rejects requests without a valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose session does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
