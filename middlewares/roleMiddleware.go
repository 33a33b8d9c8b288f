package middlewares

import (
	"net/http"

	"civicsync/models"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware lets through only sessions whose current role is role. It must run
// after AuthMiddleware.
func RoleMiddleware(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := CurrentProfile(c)
		if profile == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		if profile.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
