// Package main: HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar. Health check ve
// WebSocket dışındaki her endpoint JWT bearer token ister.
package main

import (
	"fmt"
	"net/http"

	"github.com/akinalp/readsync/middleware"
	"github.com/akinalp/readsync/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService) {
	authMw := middleware.NewAuthMiddleware(authService)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"readsync"}`)
	})

	// Auth
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))
	mux.Handle("POST /api/auth/refresh", auth(h.Auth.Refresh))

	// Read state: yerel UI
	mux.Handle("POST /api/rooms/{roomId}/read_all", auth(h.ReadState.MarkAllAsRead))
	mux.Handle("PUT /api/rooms/{roomId}/read_markers", auth(h.ReadState.SetReadMarkers))
	mux.Handle("GET /api/rooms/{roomId}/receipts", auth(h.ReadState.ListReceipts))

	// Sync ingestion: homeserver'dan gelen veriler
	mux.Handle("POST /api/sync/rooms/{roomId}/receipts", auth(h.Sync.ApplyReceipts))
	mux.Handle("POST /api/sync/rooms/{roomId}/events", auth(h.Sync.AppendEvents))
	mux.Handle("PUT /api/sync/profiles/{userId}", auth(h.Sync.UpsertProfile))

	// WebSocket: token query parameter ile authenticate edilir (ws.Handler içinde)
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
