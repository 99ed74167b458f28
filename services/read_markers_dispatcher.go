package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/readsync/models"
)

// RemoteReadMarkers, homeserver senkronizasyon protokolü (syncapi.Client karşılar).
type RemoteReadMarkers interface {
	SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error
}

// TaskRunner, arka plan yürütücüsü (taskexec.Executor karşılar).
type TaskRunner interface {
	Go(task func()) error
}

// MutationDispatcher, bir read-state değişikliğini yerelde uygular ve
// homeserver'a bildirir, çağıranı bloklamadan.
//
// fullyRead veya readReceipt nil ise o konu değiştirilmez. İkisi de nil
// ise yerel yazma olmaz ama boş gövdeli istek yine gönderilir.
type MutationDispatcher interface {
	Submit(roomID string, fullyRead, readReceipt *string) *Future
}

type readMarkersDispatcher struct {
	store       ReadStateStore
	remote      RemoteReadMarkers
	runner      TaskRunner
	localUserID string
	timeout     time.Duration
	now         func() time.Time
}

// NewMutationDispatcher, constructor.
// timeout, tek bir gönderimin (yerel yazma + uzak istek) üst süresidir.
func NewMutationDispatcher(
	store ReadStateStore,
	remote RemoteReadMarkers,
	runner TaskRunner,
	localUserID string,
	timeout time.Duration,
) MutationDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &readMarkersDispatcher{
		store:       store,
		remote:      remote,
		runner:      runner,
		localUserID: localUserID,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Submit, gönderimi arka plan yürütücüsüne verir ve hemen döner.
//
// Yerel yazmalar uzak istekten önce yapılır ve uzak hata durumunda geri
// alınmaz. Yerel yazma başarısız olursa uzak istek gönderilmez.
// Aynı oda için eşzamanlı Submit çağrıları arasında sıra garantisi yoktur.
func (d *readMarkersDispatcher) Submit(roomID string, fullyRead, readReceipt *string) *Future {
	future := newFuture(uuid.New().String())
	markers := models.ReadMarkersRequest{
		FullyRead: copyString(fullyRead),
		Read:      copyString(readReceipt),
	}

	err := d.runner.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		// Panic durumunda da Future çözülür.
		defer func() {
			if p := recover(); p != nil {
				log.Printf("[dispatch] %s: task panicked room=%s: %v", future.ID(), roomID, p)
				future.resolve(fmt.Errorf("read markers task panicked: %v", p))
			}
		}()

		future.resolve(d.apply(ctx, future.ID(), roomID, markers))
	})
	if err != nil {
		future.resolve(fmt.Errorf("failed to schedule read markers for %s: %w", roomID, err))
	}

	return future
}

func (d *readMarkersDispatcher) apply(ctx context.Context, jobID, roomID string, markers models.ReadMarkersRequest) error {
	if markers.FullyRead != nil {
		if err := d.store.UpsertMarker(ctx, roomID, *markers.FullyRead); err != nil {
			log.Printf("[dispatch] %s: local marker write failed room=%s: %v", jobID, roomID, err)
			return err
		}
	}

	if markers.Read != nil {
		ts := d.now().UnixMilli()
		if err := d.store.UpsertReceipt(ctx, roomID, d.localUserID, *markers.Read, ts); err != nil {
			log.Printf("[dispatch] %s: local receipt write failed room=%s: %v", jobID, roomID, err)
			return err
		}
	}

	if err := d.remote.SetReadMarkers(ctx, roomID, markers); err != nil {
		log.Printf("[dispatch] %s: remote submission failed room=%s: %v", jobID, roomID, err)
		return err
	}

	log.Printf("[dispatch] %s: read markers sent room=%s", jobID, roomID)
	return nil
}

// copyString, çağıranın pointer'ı sonradan değiştirmesine karşı değeri kopyalar.
func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
