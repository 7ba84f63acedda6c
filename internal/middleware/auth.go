package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/auth"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID       uint
	Email    string
	Role     string
	Username string
}

func (i Identity) IsAdmin() bool { return i.Role == "admin" }

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, bool)
}

// IdentityFromToken verifies token and converts its claims.
func IdentityFromToken(v TokenVerifier, token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	claims, ok := v.Verify(token)
	if !ok {
		return Identity{}, false
	}
	id, err := strconv.ParseUint(claims.UserID(), 10, 64)
	if err != nil || id == 0 {
		return Identity{}, false
	}
	return Identity{ID: uint(id), Email: claims.Email, Role: claims.Role, Username: claims.Username}, true
}

// BearerToken returns the token from the Authorization header, if any.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AttachUser stores the caller's identity when a valid token is present.
// Requests without one continue anonymously.
func AttachUser(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, ok := IdentityFromToken(v, BearerToken(c)); ok {
			c.Set(identityKey, ident)
			c.Set("user_id", ident.ID)
			c.Set("role", ident.Role)
		}
		c.Next()
	}
}

// CurrentUser returns the identity set by AttachUser.
func CurrentUser(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

// RequireAuth ensures a valid token was presented
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireRole ensures the caller is authenticated and holds role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if ident.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
