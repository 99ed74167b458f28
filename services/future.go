package services

import (
	"context"
	"sync"
)

// Future, asenkron bir read-state gönderiminin sonucudur.
// İki sonuç vardır: başarı (Err() == nil) veya hata. Done kapandıktan sonra
// Err değişmez.
type Future struct {
	id   string
	done chan struct{}
	err  error
	once sync.Once
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// ResolvedFuture, zaten tamamlanmış bir Future döner (no-op ve erken hatalar için).
func ResolvedFuture(err error) *Future {
	f := newFuture("")
	f.resolve(err)
	return f
}

// ID, gönderimin log korelasyon ID'si. Hiç gönderilmemiş işlemler için boştur.
func (f *Future) ID() string {
	return f.id
}

// Done, gönderim tamamlandığında kapanır.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err, Done kapandıktan sonra sonucu döner; öncesinde nil'dir.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait, sonucu bekler. ctx dolarsa ctx.Err() döner: gönderim iptal edilmez,
// arka planda tamamlanmaya devam eder.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnComplete, sonuç geldiğinde callback'i ayrı bir goroutine'de çağırır.
// Callback'in hangi goroutine'de çalışacağı çağıranın sorumluluğundadır.
func (f *Future) OnComplete(callback func(err error)) {
	go func() {
		<-f.done
		callback(f.err)
	}()
}

func (f *Future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}
