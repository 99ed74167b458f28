package repository

import (
	"context"

	"github.com/akinalp/readsync/models"
)

// ReadMarkerRepository, fully-read marker işlemleri.
//
// Upsert: Oda marker'ını koşulsuz değiştirir: daha eski bir olaya geri
// dönmek de dahil (monotonluk kontrolü yok).
type ReadMarkerRepository interface {
	Upsert(ctx context.Context, roomID, eventID string) error
	Get(ctx context.Context, roomID string) (*models.ReadMarker, error)
}
