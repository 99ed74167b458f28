// Package taskexec, arka plan görevleri için sınırlı bir yürütücü sağlar.
//
// Read marker gönderimleri çağıranı bloklamadan burada çalışır. Eşzamanlı
// görev sayısı ağırlıklı bir semaphore ile sınırlanır; kuyruğa alınan
// görevler sırayla değil, semaphore'u ilk kapan sırasıyla çalışır.
// Retry politikası yoktur.
package taskexec

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed, Close sonrası gönderilen görevler için döner.
var ErrClosed = errors.New("executor closed")

// Executor, en fazla N görevi aynı anda çalıştırır.
type Executor struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New, workers kadar eşzamanlı görev çalıştıran bir Executor oluşturur.
func New(workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{sem: semaphore.NewWeighted(int64(workers))}
}

// Go, görevi arka planda çalıştırır ve hemen döner.
// Görev bir kez kabul edildikten sonra iptal edilemez; ctx'i görevin kendisi taşır.
func (e *Executor) Go(task func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		// Background context ile Acquire sadece kapasite beklerken bloklar.
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			log.Printf("[taskexec] failed to acquire worker: %v", err)
			return
		}
		defer e.sem.Release(1)

		defer func() {
			if p := recover(); p != nil {
				log.Printf("[taskexec] task panicked: %v", p)
			}
		}()

		task()
	}()

	return nil
}

// Close, yeni görev kabulünü durdurur ve çalışan görevlerin bitmesini bekler.
// ctx dolarsa beklemeyi bırakır ve ctx.Err() döner.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
