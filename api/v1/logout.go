package v1

import (
	"net/http"

	"github.com/formulab-api/middleware"
	"github.com/gin-gonic/gin"
)

// Logout clears the access token cookie
func Logout(c *gin.Context) {
	c.SetCookie(
		middleware.AccessTokenCookie,
		"",
		-1, // expired
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged out successfully",
	})
}
