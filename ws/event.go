// Package ws, yerel UI'ya WebSocket üzerinden canlı read receipt akışı sağlar.
//
// Mimari:
//   - Hub: Tüm bağlantıları yöneten merkezi yapı
//   - Client: Her WebSocket bağlantısını ve onun oda aboneliklerini temsil eder
//   - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
//  1. Client {op:"receipts_subscribe", d:{room_id}} gönderir
//  2. Client, store'un ObserveReceipts akışına abone olur
//  3. Her snapshot {op:"receipts_snapshot"} olarak client'a yazılır
//  4. receipts_unsubscribe veya bağlantı kopması aboneliği kapatır
package ws

import (
	"encoding/json"

	"github.com/akinalp/readsync/models"
)

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Seq: Her outbound event'e verilen artan sayı. Frontend eksik
// event tespit etmek için seq'i takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inboundEvent, client'tan gelen event; Data ham olarak tutulur ve op'a göre çözülür.
type inboundEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat           = "heartbeat" // Client her 30sn'de gönderir
	OpReceiptsSubscribe   = "receipts_subscribe"
	OpReceiptsUnsubscribe = "receipts_unsubscribe"
)

// Server → Client operasyonları
const (
	OpReady            = "ready"
	OpHeartbeatAck     = "heartbeat_ack"
	OpReceiptsSnapshot = "receipts_snapshot" // Odanın güncel receipt listesi
	OpError            = "error"
)

// ReadyData, bağlantı kurulunca gönderilen ilk event'in payload'ı.
type ReadyData struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id"`
}

// RoomData, subscribe/unsubscribe payload'ı.
type RoomData struct {
	RoomID string `json:"room_id"`
}

// ReceiptsSnapshotData, bir odanın o anki receipt snapshot'ı.
type ReceiptsSnapshotData struct {
	RoomID   string                  `json:"room_id"`
	Receipts []models.DisplayReceipt `json:"receipts"`
}

// ErrorData, client'ın hatalı isteğine yanıt.
type ErrorData struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}
