// Package repository, veritabanı erişim katmanını tanımlar.
//
// Service katmanı doğrudan SQL yazmaz: bu interface'ler üzerinden çalışır.
// Tüm SQLite implementasyonları database.TxQuerier alır; böylece aynı
// repository hem *sql.DB hem de transaction (*sql.Tx) ile kullanılabilir.
package repository

import (
	"context"

	"github.com/akinalp/readsync/models"
)

// EventRepository, oda olay günlüğü (event log) işlemleri.
//
// Latest: Teslim sırasına göre en son olay; oda boşsa pkg.ErrNotFound.
// Append: Olayları teslim sırasıyla ekler; zaten bilinen olaylar atlanır.
type EventRepository interface {
	Latest(ctx context.Context, roomID string) (*models.Event, error)
	Append(ctx context.Context, events []models.Event) (int, error)
}
