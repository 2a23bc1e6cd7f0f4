package middleware

import (
	"context"
	"net/http"
	"strings"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/auth"
	"heather-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// TokenVerifier is satisfied by *auth.Verifier.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a Supabase access token in the Authorization
// header. The user's id, email, name and role (from user_metadata) are put
// on both the gin context and the request context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			unauthorized(c, "Authorization header required", "missing_token")
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			unauthorized(c, "Invalid token", err.Error())
			return
		}

		role := claims.UserMetadata.Role
		if !role.IsValid() {
			role = domain.RoleUnset
		}

		values := map[domain.CtxKey]string{
			domain.KeyUserID:    claims.Subject,
			domain.KeyUserEmail: claims.Email,
			domain.KeyUserName:  claims.UserMetadata.Name,
			domain.KeyUserRole:  string(role),
		}
		ctx := c.Request.Context()
		for k, v := range values {
			c.Set(string(k), v)
			ctx = context.WithValue(ctx, k, v)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func unauthorized(c *gin.Context, message, reason string) {
	security.DefaultLogger().LogUnauthorized(c.Request.Context(), c.ClientIP(), c.GetString(RequestIDKey), reason)
	response.Error(c, http.StatusUnauthorized, message, nil)
	c.Abort()
}
