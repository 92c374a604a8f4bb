// Package event fans committed ledger events out to in-process subscribers.
package event

import (
	"log/slog"
	"sync"

	"github.com/cloudmesh/ledger/internal/domain"
)

// Broker delivers each published event to every active subscriber. Delivery
// is best-effort: a subscriber whose buffer is full misses the event rather
// than blocking the publisher, which runs on the commit path.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan domain.Event]struct{}
	closed bool
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan domain.Event]struct{})}
}

// Subscribe registers a subscriber with the given buffer size and returns its
// channel plus a cancel function. The channel is closed on cancel and on
// broker close.
func (b *Broker) Subscribe(buffer int) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers e to all subscribers.
func (b *Broker) Publish(e domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("dropping event for slow subscriber", "kind", e.Kind, "seq", e.Seq)
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan domain.Event]struct{})
}
