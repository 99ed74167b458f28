// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'ın görevi "ince" (thin) olmalı:
// 1. Request'i parse et (path, query, JSON body)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler iş mantığı içermez ve doğrudan DB'ye erişmez.
package handlers

import (
	"net/http"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/services"
)

// AuthHandler, yerel UI oturum token'ı endpoint'lerini yöneten struct.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler, constructor.
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// tokenResponse, yenilenen access token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Me godoc
// GET /api/auth/me
// Token'ın ait olduğu oturum kullanıcısını döner.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"user_id": claims.UserID})
}

// Refresh godoc
// POST /api/auth/refresh
// Geçerli bir token karşılığında süresi yenilenmiş yeni bir token verir.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value(UserContextKey).(*models.TokenClaims); !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	token, err := h.authService.IssueAccessToken()
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

// contextKey, context'te değer taşımak için kullanılan key tipi.
// Düz string yerine özel tip: başka paketlerin key'leriyle çakışmaz.
type contextKey string

// UserContextKey, auth middleware'ın doğruladığı *models.TokenClaims'i taşır.
const UserContextKey contextKey = "user"
