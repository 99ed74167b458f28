// Package main, readsync servisinin giriş noktasıdır.
//
// Bu dosyanın görevi: Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat
//  3. Repository'leri oluştur
//  4. Arka plan yürütücüsü ve homeserver istemcisi
//  5. Service'leri oluştur
//  6. WebSocket Hub'ı başlat
//  7. Handler'ları ve route'ları bağla
//  8. UI access token'ını yaz
//  9. CORS + HTTP Server
//  10. Graceful shutdown
//
// Global değişken yok: her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/readsync/config"
	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/pkg/taskexec"
	"github.com/akinalp/readsync/syncapi"
	"github.com/akinalp/readsync/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] readsync starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (user=%s port=%d)", cfg.Session.UserID, cfg.Server.Port)

	// ─── 2. Database ───
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 4. Executor + Homeserver ───
	executor := taskexec.New(cfg.Dispatch.Workers)
	homeserver := syncapi.NewClient(cfg.Homeserver.URL, cfg.Homeserver.AccessToken, cfg.Homeserver.RequestTimeout)

	// ─── 5. Service Layer ───
	svcs := initServices(db.Conn, repos, cfg, homeserver, executor)
	defer svcs.Resolver.Close()

	// ─── 6. WebSocket Hub ───
	hub := ws.NewHub(svcs.Store)
	go hub.Run()

	// ─── 7. Handlers + Routes ───
	h := initHandlers(svcs, hub)
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth)

	// ─── 8. UI Access Token ───
	if err := writeAccessToken(cfg.Session.TokenFile, svcs.Auth.IssueAccessToken); err != nil {
		log.Fatalf("[main] failed to write access token: %v", err)
	}
	log.Printf("[main] UI access token written to %s", cfg.Session.TokenFile)

	// ─── 9. CORS + HTTP Server ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // Vite dev server
			"http://localhost:1420", // Tauri dev
			"tauri://localhost",     // Tauri production
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     corsHandler.Handler(mux),
		ReadTimeout: 15 * time.Second,
		// Mutasyon endpoint'leri homeserver yanıtını bekler.
		WriteTimeout: cfg.Homeserver.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Sıra: WebSocket client'ları → HTTP server → bekleyen gönderimler → DB (defer).
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Homeserver.RequestTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
	if err := executor.Close(ctx); err != nil {
		log.Printf("[main] pending read markers not flushed: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}

// writeAccessToken, yerel UI'nın okuyacağı token dosyasını yazar (sadece sahibi okuyabilir).
func writeAccessToken(path string, issue func() (string, error)) error {
	token, err := issue()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}
