package dto

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of tokens issued by the identity service
type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
