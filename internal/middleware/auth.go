package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidzonehq/kidzone-backend/internal/chat"
	"github.com/kidzonehq/kidzone-backend/internal/database"
	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/pkg/utils"
)

// AuthMiddleware validates the bearer token and attaches both the user id
// and an explicit chat session to the request context. Identity issuance
// lives in the auth service; this only maps token to user.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Verify the user still exists and pick up display attributes
		// for the session.
		var user models.User
		if err := database.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		}

		display := chat.ResolveDisplay(user)
		c.Set("userId", claims.UserID)
		c.Set("session", chat.Session{
			ID:          user.ID,
			DisplayName: display.Name,
			PhotoURL:    user.Image,
		})

		c.Next()
	}
}

// SessionFrom extracts the chat session set by AuthMiddleware.
func SessionFrom(c *gin.Context) (chat.Session, bool) {
	v, ok := c.Get("session")
	if !ok {
		return chat.Session{}, false
	}
	sess, ok := v.(chat.Session)
	return sess, ok
}
