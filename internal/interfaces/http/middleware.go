package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/podhive/access-engine/pkg/utils"
)

// ctxUserID is the gin context key carrying the authenticated user's id
const ctxUserID = "user_id"

// AuthRequired validates Authorization: Bearer <token> and injects the
// authenticated user id into the request context
func AuthRequired(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid Authorization header",
			})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := tokens.Verify(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// actorID returns the authenticated user id injected by AuthRequired
func actorID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
