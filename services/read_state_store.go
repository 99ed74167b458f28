// Package services, iş mantığı katmanını barındırır.
//
// Read-state akışı:
//   - Okuma: ReadStateStore → ReceiptSubscription → çağıran
//   - Yazma: çağıran → MutationDispatcher → ReadStateStore + homeserver
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/pkg/notify"
	"github.com/akinalp/readsync/repository"
)

// ReadStateStore, read marker ve read receipt'lerin yetkili yerel kopyası.
//
// Upsert'ler koşulsuzdur (last write wins). Receipt değişiklikleri odanın
// abonelerine bildirilir; marker değişiklikleri receipt snapshot'larını
// etkilemediği için bildirim üretmez.
type ReadStateStore interface {
	UpsertMarker(ctx context.Context, roomID, eventID string) error
	UpsertReceipt(ctx context.Context, roomID, userID, eventID string, originServerTS int64) error
	// LatestEvent, odanın teslim sırasına göre en son olayını döner; oda boşsa ok=false.
	LatestEvent(ctx context.Context, roomID string) (event models.Event, ok bool, err error)
	ObserveReceipts(ctx context.Context, roomID string) *ReceiptSubscription
	QueryReceipts(ctx context.Context, roomID, eventID string) ([]models.DisplayReceipt, error)
	// ListReceipts, ObserveReceipts'in anlık snapshot'ını senkron olarak döner.
	ListReceipts(ctx context.Context, roomID string) ([]models.DisplayReceipt, error)
	Marker(ctx context.Context, roomID string) (*models.ReadMarker, error)
	Receipt(ctx context.Context, roomID, userID string) (*models.ReadReceipt, error)
	// NotifyRoom, odanın receipt abonelerini yeniden hesaplamaya zorlar
	// (sync ingest ve profil değişiklikleri için).
	NotifyRoom(roomID string)
}

type readStateStore struct {
	eventRepo   repository.EventRepository
	markerRepo  repository.ReadMarkerRepository
	receiptRepo repository.ReadReceiptRepository
	resolver    IdentityResolver
	notifier    *notify.Notifier
}

// NewReadStateStore, constructor.
func NewReadStateStore(
	eventRepo repository.EventRepository,
	markerRepo repository.ReadMarkerRepository,
	receiptRepo repository.ReadReceiptRepository,
	resolver IdentityResolver,
	notifier *notify.Notifier,
) ReadStateStore {
	return &readStateStore{
		eventRepo:   eventRepo,
		markerRepo:  markerRepo,
		receiptRepo: receiptRepo,
		resolver:    resolver,
		notifier:    notifier,
	}
}

func (s *readStateStore) UpsertMarker(ctx context.Context, roomID, eventID string) error {
	return s.markerRepo.Upsert(ctx, roomID, eventID)
}

func (s *readStateStore) UpsertReceipt(ctx context.Context, roomID, userID, eventID string, originServerTS int64) error {
	err := s.receiptRepo.Upsert(ctx, &models.ReadReceipt{
		RoomID:         roomID,
		UserID:         userID,
		EventID:        eventID,
		OriginServerTS: originServerTS,
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(roomID)
	return nil
}

func (s *readStateStore) LatestEvent(ctx context.Context, roomID string) (models.Event, bool, error) {
	event, err := s.eventRepo.Latest(ctx, roomID)
	if errors.Is(err, pkg.ErrNotFound) {
		return models.Event{}, false, nil
	}
	if err != nil {
		return models.Event{}, false, err
	}
	return *event, true, nil
}

func (s *readStateStore) QueryReceipts(ctx context.Context, roomID, eventID string) ([]models.DisplayReceipt, error) {
	receipts, err := s.receiptRepo.ListByEvent(ctx, roomID, eventID)
	if err != nil {
		return nil, err
	}
	return s.toDisplay(ctx, receipts), nil
}

func (s *readStateStore) Marker(ctx context.Context, roomID string) (*models.ReadMarker, error) {
	return s.markerRepo.Get(ctx, roomID)
}

func (s *readStateStore) Receipt(ctx context.Context, roomID, userID string) (*models.ReadReceipt, error) {
	return s.receiptRepo.Get(ctx, roomID, userID)
}

func (s *readStateStore) ListReceipts(ctx context.Context, roomID string) ([]models.DisplayReceipt, error) {
	return s.roomSnapshot(ctx, roomID)
}

func (s *readStateStore) NotifyRoom(roomID string) {
	s.notifier.Publish(roomID)
}

// toDisplay, receipt'leri o anki profillerle birleştirir.
func (s *readStateStore) toDisplay(ctx context.Context, receipts []models.ReadReceipt) []models.DisplayReceipt {
	out := make([]models.DisplayReceipt, 0, len(receipts))
	for _, rr := range receipts {
		out = append(out, models.DisplayReceipt{
			User:           s.resolver.ResolveProfile(ctx, rr.UserID),
			EventID:        rr.EventID,
			OriginServerTS: rr.OriginServerTS,
		})
	}
	return out
}

func (s *readStateStore) roomSnapshot(ctx context.Context, roomID string) ([]models.DisplayReceipt, error) {
	receipts, err := s.receiptRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts for %s: %w", roomID, err)
	}
	return s.toDisplay(ctx, receipts), nil
}

// ObserveReceipts, odanın receipt snapshot akışını başlatır.
//
// İlk snapshot hemen (boş da olsa) teslim edilir; sonrakiler odanın receipt
// satırları veya kullanıcılarının profilleri değiştikçe gelir. Tüketici
// yavaşsa ara snapshot'lar atlanır, her zaman en güncel olan teslim edilir.
// ctx iptal edildiğinde veya Close çağrıldığında akış sonlanır.
func (s *readStateStore) ObserveReceipts(ctx context.Context, roomID string) *ReceiptSubscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &ReceiptSubscription{
		roomID:    roomID,
		snapshots: make(chan []models.DisplayReceipt),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// Abonelik ilk snapshot'tan ÖNCE kaydedilir: aradaki yazmalar kaçmaz.
	changes := s.notifier.Subscribe(roomID)
	go sub.run(ctx, changes, func(ctx context.Context) ([]models.DisplayReceipt, error) {
		return s.roomSnapshot(ctx, roomID)
	})

	return sub
}

// ReceiptSubscription, ObserveReceipts'in döndüğü canlı sorgu.
// Snapshot'lar arka plan goroutine'inden teslim edilir.
type ReceiptSubscription struct {
	roomID    string
	snapshots chan []models.DisplayReceipt
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// RoomID, aboneliğin odası.
func (s *ReceiptSubscription) RoomID() string {
	return s.roomID
}

// Snapshots, snapshot channel'ı. Abonelik bitince kapanır.
func (s *ReceiptSubscription) Snapshots() <-chan []models.DisplayReceipt {
	return s.snapshots
}

// Close, aboneliği sonlandırır ve arka plan goroutine'inin çıkmasını bekler.
func (s *ReceiptSubscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *ReceiptSubscription) run(
	ctx context.Context,
	changes *notify.Subscription,
	compute func(ctx context.Context) ([]models.DisplayReceipt, error),
) {
	defer close(s.done)
	defer close(s.snapshots)
	defer changes.Close()

	var pending []models.DisplayReceipt
	hasPending := false

	refresh := func() {
		snap, err := compute(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[store] receipt snapshot failed for room %s: %v", s.roomID, err)
			}
			return
		}
		pending = snap
		hasPending = true
	}

	refresh()

	for {
		// Bekleyen snapshot yoksa out nil kalır: nil channel'a gönderim select'te hiç seçilmez.
		var out chan []models.DisplayReceipt
		if hasPending {
			out = s.snapshots
		}

		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes.C():
			if !ok {
				return
			}
			refresh()
		case out <- pending:
			pending = nil
			hasPending = false
		}
	}
}
