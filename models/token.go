package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, yerel UI API'sine erişim token'ının payload'ı.
// Oturum tek bir yerel kullanıcıya aittir; UserID bu kullanıcıyla eşleşmelidir.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
