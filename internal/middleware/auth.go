package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/spotmap-go/pkg/response"
)

const userIDKey = "user_id"

// TokenVerifier resolves an access token to a user id
type TokenVerifier func(token string) (int64, error)

// Bearer validates the access token and sets the user id in context.
func Bearer(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Not authenticated")
			return
		}

		userID, err := verify(token)
		if err != nil {
			response.Unauthorized(c, "Could not validate credentials")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id, 0 outside Bearer
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
