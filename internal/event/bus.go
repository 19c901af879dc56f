// Package event provides the ordered pub/sub bus the bridge uses to push
// lifecycle and market-data events to subscribers. Each subscriber gets its
// own buffered channel; publishing never blocks the producer.
package event

import (
	"sync"
)

// Bus fans events out to any number of subscribers in submission order.
// The zero value is not usable; create one with NewBus.
type Bus struct {
	mu        sync.Mutex
	nextSubID int
	subs      map[int]chan any
	closed    bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan any),
	}
}

// Subscribe creates a new subscription with the given channel buffer size.
// A bufSize <= 0 defaults to 256. The returned id is used to Unsubscribe.
func (b *Bus) Subscribe(bufSize int) (id int, ch <-chan any) {
	if bufSize <= 0 {
		bufSize = 256
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id = b.nextSubID
	b.nextSubID++
	c := make(chan any, bufSize)
	b.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish delivers evt to every subscriber. When a subscriber's buffer is
// full the oldest queued event is discarded to make room, so a slow consumer
// loses history but can never stall the producer. Delivery order per
// subscriber matches publish order.
func (b *Bus) Publish(evt any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			continue
		default:
		}
		// Buffer full: drop the oldest event, then enqueue. If the
		// subscriber drained and refilled concurrently the event is
		// dropped rather than blocking.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
