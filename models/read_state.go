package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ReadMarker, bir odada "buraya kadar okudum" noktası (fully-read marker).
// Oda başına en fazla bir tane vardır, her güncellemede koşulsuz üzerine yazılır.
type ReadMarker struct {
	RoomID  string `json:"room_id"`
	EventID string `json:"event_id"`
}

// ReadReceipt, bir kullanıcının odada okuduğunu duyurduğu son olay.
// (RoomID, UserID) başına en fazla bir tane: yeni receipt eskisinin yerine geçer.
type ReadReceipt struct {
	RoomID         string `json:"room_id"`
	UserID         string `json:"user_id"`
	EventID        string `json:"event_id"`
	OriginServerTS int64  `json:"origin_server_ts"`
}

// DisplayReceipt, ReadReceipt + o anki çözümlenmiş profil. Kalıcı değildir;
// her snapshot'ta yeniden hesaplanır.
type DisplayReceipt struct {
	User           Profile `json:"user"`
	EventID        string  `json:"event_id"`
	OriginServerTS int64   `json:"origin_server_ts"`
}

// ReadMarkersRequest, PUT /rooms/{roomId}/read_markers gövdesi.
// Alan yoksa o konu için "değişiklik yok" anlamına gelir.
type ReadMarkersRequest struct {
	FullyRead *string `json:"m.fully_read,omitempty"`
	Read      *string `json:"m.read,omitempty"`
}

// IsEmpty, iki alanın da yok olduğunu bildirir.
func (r ReadMarkersRequest) IsEmpty() bool {
	return r.FullyRead == nil && r.Read == nil
}

// Validate, mevcut alanların boş string olmadığını kontrol eder.
func (r ReadMarkersRequest) Validate() error {
	if r.FullyRead != nil && *r.FullyRead == "" {
		return fmt.Errorf("m.fully_read must not be empty")
	}
	if r.Read != nil && *r.Read == "" {
		return fmt.Errorf("m.read must not be empty")
	}
	return nil
}

// ReceiptTypeRead, m.receipt içeriğinde herkese açık read receipt anahtarı.
const ReceiptTypeRead = "m.read"

// receiptData, m.receipt içeriğindeki kullanıcı başına kayıt.
type receiptData struct {
	TS int64 `json:"ts"`
}

// ReceiptContent, sunucunun m.receipt ephemeral olay içeriği:
//
//	{"$event_id": {"m.read": {"@user:server": {"ts": 1661384801651}}}}
type ReceiptContent map[string]map[string]map[string]receiptData

// ParseReceiptContent, ham m.receipt içeriğini çözer.
func ParseReceiptContent(raw json.RawMessage) (ReceiptContent, error) {
	var content ReceiptContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("invalid m.receipt content: %w", err)
	}
	return content, nil
}

// Receipts, içerikteki m.read kayıtlarını ReadReceipt listesine çevirir.
// Sıra deterministiktir (event ID, sonra user ID): aynı kullanıcı için
// birden fazla kayıt varsa yazma sırasına göre sonuncusu kazanır.
func (c ReceiptContent) Receipts(roomID string) []ReadReceipt {
	var receipts []ReadReceipt
	for eventID, byType := range c {
		users, ok := byType[ReceiptTypeRead]
		if !ok {
			continue
		}
		for userID, data := range users {
			receipts = append(receipts, ReadReceipt{
				RoomID:         roomID,
				UserID:         userID,
				EventID:        eventID,
				OriginServerTS: data.TS,
			})
		}
	}

	sort.Slice(receipts, func(i, j int) bool {
		if receipts[i].EventID != receipts[j].EventID {
			return receipts[i].EventID < receipts[j].EventID
		}
		return receipts[i].UserID < receipts[j].UserID
	})
	return receipts
}
