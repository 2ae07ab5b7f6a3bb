package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"restock/api/internal/models"
	"restock/api/internal/security"
	"restock/api/internal/service"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextClaims = "access_claims"
)

// Auth validates the bearer access token and stashes the caller identity
// in the request context. Access tokens are stateless, so no store lookup
// happens here; refresh revocation never invalidates them early.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := auth.Verify(c.Request.Context(), tokenStr, security.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, models.UserRole(claims.Role))
		c.Set(ContextClaims, *claims)

		c.Next()
	}
}
