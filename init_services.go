// Package main: Service katmanı başlatma.
//
// Sıralama: resolver → store → dispatcher → read services.
// Store, resolver'ı DisplayReceipt üretmek için; dispatcher store'u
// yerel yazmalar için kullanır.
package main

import (
	"database/sql"

	"github.com/akinalp/readsync/config"
	"github.com/akinalp/readsync/pkg/notify"
	"github.com/akinalp/readsync/services"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth       services.AuthService
	Resolver   services.IdentityResolver
	Store      services.ReadStateStore
	Dispatcher services.MutationDispatcher
	Read       *services.ReadServices
	Ingest     services.SyncIngestService
}

// initServices, tüm service'leri oluşturur.
//
// remote: homeserver istemcisi (syncapi.Client)
// runner: arka plan yürütücüsü (taskexec.Executor)
func initServices(
	db *sql.DB,
	repos *Repositories,
	cfg *config.Config,
	remote services.RemoteReadMarkers,
	runner services.TaskRunner,
) *Services {
	resolver := services.NewIdentityResolver(repos.Profile, cfg.Cache.ProfileTTL)

	store := services.NewReadStateStore(
		repos.Event,
		repos.ReadMarker,
		repos.ReadReceipt,
		resolver,
		notify.New(),
	)

	dispatcher := services.NewMutationDispatcher(
		store,
		remote,
		runner,
		cfg.Session.UserID,
		cfg.Homeserver.RequestTimeout,
	)

	return &Services{
		Auth:       services.NewAuthService(cfg.Session.JWTSecret, cfg.Session.UserID, cfg.Session.AccessTokenExpiry),
		Resolver:   resolver,
		Store:      store,
		Dispatcher: dispatcher,
		Read:       services.NewReadServices(store, dispatcher),
		Ingest:     services.NewSyncIngestService(db, store, resolver),
	}
}
