// Package notify, oda bazlı değişiklik bildirimlerini dağıtır (Observer pattern).
//
// Store bir odanın receipt satırlarını değiştirdiğinde Publish(roomID) çağırır;
// o odaya abone olan her Subscription bir sinyal alır. Sinyaller birleştirilir
// (coalescing): abone yavaşsa bekleyen tek bir sinyal yeterlidir, çünkü abone
// sinyali alınca güncel durumu baştan okur.
package notify

import "sync"

// Notifier, topic → abone kümesi haritasını tutar.
// Subscribe/Close ve Publish eşzamanlı çağrılabilir.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// New, boş bir Notifier oluşturur.
func New() *Notifier {
	return &Notifier{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription, tek bir topic'e kayıtlı bir dinleyici.
type Subscription struct {
	topic    string
	notifier *Notifier
	signal   chan struct{}
	once     sync.Once
}

// Subscribe, topic için yeni bir abonelik kaydeder.
func (n *Notifier) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic:    topic,
		notifier: n,
		signal:   make(chan struct{}, 1),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[topic]; !ok {
		n.subs[topic] = make(map[*Subscription]struct{})
	}
	n.subs[topic][sub] = struct{}{}

	return sub
}

// Publish, topic'in tüm abonelerine bloklamadan sinyal gönderir.
func (n *Notifier) Publish(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for sub := range n.subs[topic] {
		select {
		case sub.signal <- struct{}{}:
		default:
			// Zaten bekleyen bir sinyal var
		}
	}
}

// Subscribers, topic'e kayıtlı abone sayısını döner.
func (n *Notifier) Subscribers(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.subs[topic])
}

// C, değişiklik sinyallerinin geldiği channel. Close sonrası kapanır.
func (s *Subscription) C() <-chan struct{} {
	return s.signal
}

// Topic, aboneliğin dinlediği topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close, aboneliği kaldırır ve sinyal channel'ını kapatır.
// Channel, Publish'in RLock'u ile çakışmasın diye Lock altında kapatılır.
func (s *Subscription) Close() {
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		defer n.mu.Unlock()

		if subs, ok := n.subs[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(n.subs, s.topic)
			}
		}
		close(s.signal)
	})
}
