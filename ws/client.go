package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/readsync/services"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) bağlantı kapatılır.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine vardır:
//   - ReadPump: Client'dan gelen op'ları okur ve işler
//   - WritePump: send channel'ındaki mesajları bağlantıya yazar
//
// Ayrıca her oda aboneliği için bir forward goroutine'i snapshot'ları
// send channel'ına taşır.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	userID string

	send   chan []byte
	sendMu sync.Mutex // send'e yazma ve kapatmayı sıralar
	closed bool

	mu sync.Mutex // conn.WriteMessage çağrılarını korur

	// subs: roomID → abonelik. ctx bağlantı kapanınca iptal edilir.
	ctx    context.Context
	cancel context.CancelFunc
	subsMu sync.Mutex
	subs   map[string]*services.ReceiptSubscription
}

func newClient(hub *Hub, conn *websocket.Conn, id, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]*services.ReceiptSubscription),
	}
}

// ReadPump, WebSocket bağlantısından gelen mesajları okur ve işler.
// Bağlantı kapanana kadar bloklar; çıkarken client'ı Hub'dan çıkarır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for client %s: %v", c.id, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from client %s: %v", c.id, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event inboundEvent) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for client %s: %v", c.id, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpReceiptsSubscribe:
		if roomID, ok := c.parseRoom(event); ok {
			c.subscribe(roomID)
		}

	case OpReceiptsUnsubscribe:
		if roomID, ok := c.parseRoom(event); ok {
			c.unsubscribe(roomID)
		}

	default:
		log.Printf("[ws] unknown op from client %s: %s", c.id, event.Op)
		c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: event.Op, Message: "unknown op"}})
	}
}

// parseRoom, subscribe/unsubscribe payload'ından room_id çıkarır.
func (c *Client) parseRoom(event inboundEvent) (string, bool) {
	var data RoomData
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: event.Op, Message: "invalid payload"}})
			return "", false
		}
	}
	if data.RoomID == "" {
		c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: event.Op, Message: "room_id is required"}})
		return "", false
	}
	return data.RoomID, true
}

// subscribe, odanın receipt akışına abone olur. Aynı odaya ikinci abonelik açılmaz.
func (c *Client) subscribe(roomID string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	if _, ok := c.subs[roomID]; ok {
		return
	}

	sub := c.hub.observer.ObserveReceipts(c.ctx, roomID)
	c.subs[roomID] = sub
	go c.forward(sub)

	log.Printf("[ws] client %s subscribed to receipts of %s", c.id, roomID)
}

// unsubscribe, odanın aboneliğini kapatır; abone değilse bir şey yapmaz.
func (c *Client) unsubscribe(roomID string) {
	c.subsMu.Lock()
	sub, ok := c.subs[roomID]
	delete(c.subs, roomID)
	c.subsMu.Unlock()

	if ok {
		sub.Close()
		log.Printf("[ws] client %s unsubscribed from receipts of %s", c.id, roomID)
	}
}

// forward, aboneliğin snapshot'larını abonelik kapanana kadar client'a iletir.
func (c *Client) forward(sub *services.ReceiptSubscription) {
	for receipts := range sub.Snapshots() {
		c.sendEvent(Event{
			Op:   OpReceiptsSnapshot,
			Data: ReceiptsSnapshotData{RoomID: sub.RoomID(), Receipts: receipts},
		})
	}
}

// sendEvent, client'a tek bir event gönderir.
func (c *Client) sendEvent(event Event) {
	event.Seq = c.hub.nextSeq()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for client %s: %v", c.id, err)
		return
	}

	if !c.enqueue(data) {
		log.Printf("[ws] send buffer full for client %s, dropping connection", c.id)
		go c.hub.unregisterClient(c)
	}
}

// enqueue, mesajı send buffer'ına ekler. Buffer doluysa false döner;
// client kapanmışsa mesajı sessizce atar.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return true
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close, send channel'ını kapatır ve tüm abonelikleri sonlandırır.
// Birden fazla kez çağrılabilir.
func (c *Client) close() {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()

	c.cancel()

	c.subsMu.Lock()
	subs := c.subs
	c.subs = make(map[string]*services.ReceiptSubscription)
	c.subsMu.Unlock()

	// Abonelikler ctx iptaliyle zaten sonlanıyor; Close goroutine'lerin çıkmasını bekler.
	go func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()
}

// WritePump, send channel'ındaki mesajları WebSocket bağlantısına yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı: Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket aynı anda birden fazla yazmaya izin vermez.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
