package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Principal is the authenticated user behind a request. Services take it
// explicitly; ledger-affecting operations are always attributable to one.
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// SessionResolver resolves a bearer token to a principal.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

const principalKey = "principal"

// Auth resolves the Authorization header into a principal when present.
// It never aborts; RequireAuth enforces presence on protected routes.
func Auth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		principal, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil || principal == nil {
			c.Next()
			return
		}

		c.Set(principalKey, *principal)
		c.Set("user_id", principal.UserID)
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetPrincipal(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: valid session token required"})
			return
		}

		c.Next()
	}
}

// RequireAdmin allows admins through, either by role or by the configured
// admin ID allowlist.
func RequireAdmin(adminIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: valid session token required"})
			return
		}

		if _, listed := allowed[principal.UserID]; !listed && !principal.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: admin access required"})
			return
		}

		c.Next()
	}
}

// GetPrincipal returns the request's authenticated principal.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := v.(Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
