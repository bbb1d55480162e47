package middleware

import (
	"github.com/gin-gonic/gin"

	"vnpay-acquirer/internal/shared/response"
	"vnpay-acquirer/pkg/jwt"
)

// AdminMiddleware requires the role set by AuthMiddleware to be admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role != jwt.RoleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
