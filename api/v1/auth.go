package v1

import (
	"net/http"

	"github.com/formulab-api/middleware"
	"github.com/gin-gonic/gin"
)

// GetCurrentUser returns the operator resolved from the request token
func GetCurrentUser(c *gin.Context) {
	operator, ok := middleware.CurrentOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "User not authenticated",
		})
		return
	}
	respondOK(c, http.StatusOK, operator)
}
