// Package main: Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB bağlantısını alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/akinalp/readsync/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	Event       repository.EventRepository
	Profile     repository.ProfileRepository
	ReadMarker  repository.ReadMarkerRepository
	ReadReceipt repository.ReadReceiptRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Event:       repository.NewSQLiteEventRepo(conn),
		Profile:     repository.NewSQLiteProfileRepo(conn),
		ReadMarker:  repository.NewSQLiteReadMarkerRepo(conn),
		ReadReceipt: repository.NewSQLiteReadReceiptRepo(conn),
	}
}
