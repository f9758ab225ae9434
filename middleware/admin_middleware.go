package middleware

import (
	"net/http"

	"github.com/formulab-api/models"
	"github.com/gin-gonic/gin"
)

// AdminMiddleware only lets admins through. Use after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, ok := CurrentOperator(c)
		switch {
		case !ok:
			abort(c, http.StatusUnauthorized, "Authentication required")
		case operator.Role != models.RoleAdmin:
			abort(c, http.StatusForbidden, "Admin privileges required")
		default:
			c.Next()
		}
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}
