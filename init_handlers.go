// Package main: Handler katmanı başlatma.
//
// Handler'lar "thin" dir: sadece HTTP parse + service call + response write.
package main

import (
	"github.com/akinalp/readsync/handlers"
	"github.com/akinalp/readsync/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth      *handlers.AuthHandler
	ReadState *handlers.ReadStateHandler
	Sync      *handlers.SyncHandler
	WS        *ws.Handler
}

// initHandlers, tüm handler'ları service dependency'leri ile oluşturur.
func initHandlers(svcs *Services, hub *ws.Hub) *Handlers {
	return &Handlers{
		Auth:      handlers.NewAuthHandler(svcs.Auth),
		ReadState: handlers.NewReadStateHandler(svcs.Read),
		Sync:      handlers.NewSyncHandler(svcs.Ingest),
		WS:        ws.NewHandler(hub, svcs.Auth),
	}
}
