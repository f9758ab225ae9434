package middleware

import (
	"net/http"
	"strings"

	"github.com/formulab-api/models"
	"github.com/formulab-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userId"
	ContextRole   = "role"
	ContextEmail  = "email"
)

// AccessTokenCookie is the cookie the identity service sets on login
const AccessTokenCookie = "access_token"

// LocalOperatorID is the operator used when no JWT secret is configured
const LocalOperatorID = "local"

// AuthMiddleware authenticates requests with a bearer token or the
// access_token cookie. With an empty secret every request runs as the local
// admin operator.
func AuthMiddleware(secret string, log *zap.Logger) gin.HandlerFunc {
	if secret == "" {
		log.Warn("JWT secret not configured, all requests run as the local operator")
		return func(c *gin.Context) {
			c.Set(ContextUserID, LocalOperatorID)
			c.Set(ContextRole, string(models.RoleAdmin))
			c.Next()
		}
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := services.ValidateToken(secret, token)
		if err != nil {
			log.Debug("rejected token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		role := claims.Role
		if role == "" {
			role = string(models.RoleTechnician)
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, role)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentOperator returns the authenticated operator of the request
func CurrentOperator(c *gin.Context) (models.Operator, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return models.Operator{}, false
	}
	return models.Operator{
		ID:    userID,
		Email: c.GetString(ContextEmail),
		Role:  models.Role(c.GetString(ContextRole)),
	}, true
}
