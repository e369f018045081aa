package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"claimintake/internal/pkg/jwtutil"
	"claimintake/internal/transport/http/response"
)

const (
	ContextClaimsKey   = "claims"
	ContextTenantIDKey = "tenant_id"
	ContextRoleKey     = "role"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextTenantIDKey, claims.TenantID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// RequireTenantAccess rejects tokens scoped to a tenant other than the
// :tenant_id path parameter. Admin tokens pass.
func RequireTenantAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing token claims")
			c.Abort()
			return
		}
		if !claims.IsAdmin() && claims.TenantID != c.Param("tenant_id") {
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "token does not grant access to this tenant")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok || !claims.IsAdmin() {
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*jwtutil.Claims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwtutil.Claims)
	return claims, ok && claims != nil
}
