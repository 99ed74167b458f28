package services

import (
	"context"
	"fmt"

	"github.com/akinalp/readsync/models"
)

// ReadService, bir odanın okuma durumu için tek giriş noktası (façade).
//
// Mutasyonlar (MarkAllAsRead, SetReadReceipt, SetReadMarker, SetReadMarkers)
// bloklamaz; sonuç Future ile gelir. QueryReceipts senkron, ObserveReceipts
// push tabanlıdır.
type ReadService interface {
	MarkAllAsRead(ctx context.Context) *Future
	SetReadReceipt(eventID string) *Future
	SetReadMarker(eventID string) *Future
	SetReadMarkers(fullyRead, readReceipt *string) *Future
	ObserveReceipts(ctx context.Context) *ReceiptSubscription
	QueryReceipts(ctx context.Context, eventID string) ([]models.DisplayReceipt, error)
	ListReceipts(ctx context.Context) ([]models.DisplayReceipt, error)
}

type readService struct {
	roomID     string
	store      ReadStateStore
	dispatcher MutationDispatcher
}

// NewReadService, bir odaya bağlı ReadService oluşturur.
func NewReadService(roomID string, store ReadStateStore, dispatcher MutationDispatcher) ReadService {
	return &readService{
		roomID:     roomID,
		store:      store,
		dispatcher: dispatcher,
	}
}

// MarkAllAsRead, odanın en son olayını hem marker hem receipt olarak gönderir.
// Oda boşsa hiçbir şey gönderilmez: geçersiz ID ile istek atılmaz.
func (s *readService) MarkAllAsRead(ctx context.Context) *Future {
	latest, ok, err := s.store.LatestEvent(ctx, s.roomID)
	if err != nil {
		return ResolvedFuture(fmt.Errorf("failed to load latest event for %s: %w", s.roomID, err))
	}
	if !ok {
		return ResolvedFuture(nil)
	}

	eventID := latest.ID
	return s.dispatcher.Submit(s.roomID, &eventID, &eventID)
}

func (s *readService) SetReadReceipt(eventID string) *Future {
	return s.dispatcher.Submit(s.roomID, nil, &eventID)
}

func (s *readService) SetReadMarker(eventID string) *Future {
	return s.dispatcher.Submit(s.roomID, &eventID, nil)
}

// SetReadMarkers, iki konuyu tek istekte gönderir; nil olan değişmez.
func (s *readService) SetReadMarkers(fullyRead, readReceipt *string) *Future {
	return s.dispatcher.Submit(s.roomID, fullyRead, readReceipt)
}

func (s *readService) ObserveReceipts(ctx context.Context) *ReceiptSubscription {
	return s.store.ObserveReceipts(ctx, s.roomID)
}

func (s *readService) QueryReceipts(ctx context.Context, eventID string) ([]models.DisplayReceipt, error) {
	return s.store.QueryReceipts(ctx, s.roomID, eventID)
}

func (s *readService) ListReceipts(ctx context.Context) ([]models.DisplayReceipt, error) {
	return s.store.ListReceipts(ctx, s.roomID)
}

// ReadServices, oturumun paylaşılan store ve dispatcher'ı üzerinden
// oda bazlı ReadService üretir.
type ReadServices struct {
	store      ReadStateStore
	dispatcher MutationDispatcher
}

// NewReadServices, constructor.
func NewReadServices(store ReadStateStore, dispatcher MutationDispatcher) *ReadServices {
	return &ReadServices{store: store, dispatcher: dispatcher}
}

// ForRoom, odaya bağlı ReadService döner; state tutmaz.
func (r *ReadServices) ForRoom(roomID string) ReadService {
	return NewReadService(roomID, r.store, r.dispatcher)
}
