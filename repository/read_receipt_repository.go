package repository

import (
	"context"

	"github.com/akinalp/readsync/models"
)

// ReadReceiptRepository, read receipt işlemleri.
//
// Upsert: (room_id, user_id) anahtarıyla ekle-veya-değiştir. Yeni timestamp
// eskisinden küçük olsa bile son yazılan kazanır.
// ListByRoom: Odanın tüm receipt'leri, user_id sırasıyla.
// ListByEvent: Sadece verilen olaya işaret eden receipt'ler.
// RoomsForUser: Kullanıcının receipt'i olan odalar (profil değişikliği bildirimi için).
type ReadReceiptRepository interface {
	Upsert(ctx context.Context, receipt *models.ReadReceipt) error
	Get(ctx context.Context, roomID, userID string) (*models.ReadReceipt, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.ReadReceipt, error)
	ListByEvent(ctx context.Context, roomID, eventID string) ([]models.ReadReceipt, error)
	RoomsForUser(ctx context.Context, userID string) ([]string, error)
}
