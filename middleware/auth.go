package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"labellens/auth"
	"labellens/models"

	"github.com/gin-gonic/gin"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromRequest(c)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization token is missing or invalid",
			})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// lets the request through either way.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromRequest(c)
		if err == nil && user != nil {
			c.Set("user", user)
			c.Set("userID", user.ID)
		}
		c.Next()
	}
}

func userFromRequest(c *gin.Context) (*models.User, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("no bearer token")
	}

	userID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, err
	}

	return auth.GetUserByID(userID)
}
