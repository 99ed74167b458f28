package ws

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/akinalp/readsync/services"
)

// ReceiptObserver, client aboneliklerinin kaynağı (services.ReadStateStore).
type ReceiptObserver interface {
	ObserveReceipts(ctx context.Context, roomID string) *services.ReceiptSubscription
}

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
//
// Hub.Run() goroutine'i register/unregister channel'larını `select` ile dinler.
// Snapshot'lar Hub üzerinden geçmez: her client kendi oda aboneliklerini
// tutar ve snapshot'ları doğrudan kendi send buffer'ına yazar.
type Hub struct {
	observer ReceiptObserver

	// clients: clientID → Client
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	quitOnce sync.Once

	// seq: Her outbound event'e verilen artan sayaç.
	seq atomic.Int64
}

// NewHub, yeni bir Hub oluşturur.
func NewHub(observer ReceiptObserver) *Hub {
	return &Hub{
		observer:   observer,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
// Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-h.quit:
			return
		}
	}
}

// registerClient, client'ı Hub'a kaydeder. Hub kapandıysa false döner.
func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// unregisterClient, client'ı Hub'dan çıkarma isteği gönderir.
// Hub kapandıysa bloklamaz: Shutdown zaten tüm client'ları kapatmıştır.
func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client
	log.Printf("[ws] client connected: id=%s user=%s (total: %d)", client.id, client.userID, len(h.clients))
}

// removeClient, client'ı Hub'dan çıkarır, send channel'ını ve aboneliklerini kapatır.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)
	client.close()

	log.Printf("[ws] client disconnected: id=%s user=%s (remaining: %d)", client.id, client.userID, len(h.clients))
}

// ClientCount, bağlı client sayısını döner.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// nextSeq, outbound event sıra numarası üretir.
func (h *Hub) nextSeq() int64 {
	return h.seq.Add(1)
}

// Shutdown, event loop'u durdurur ve tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
	log.Println("[ws] hub shut down, all connections closed")
}
