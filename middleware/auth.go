// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Hata varsa next çağrılmaz ve request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/readsync/handlers"
	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
)

// TokenValidator, access token doğrulayan bileşen (services.AuthService).
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401, başka kullanıcıya aitse → 403.
//
// HTTP header formatı: Authorization: Bearer <token>
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.validator.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// Downstream handler'lar r.Context().Value(handlers.UserContextKey) ile erişir.
		ctx := context.WithValue(r.Context(), handlers.UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
