// Package bus carries in-process cart change notifications between the cart
// store and the views observing it.
package bus

import (
	"sync"

	"github.com/localmandi/storefront/internal/domain"
)

// Topics published by cart stores.
const (
	// TopicCartUpdated is a bare change signal with no payload.
	TopicCartUpdated = "cart-updated"
	// TopicCartUpdatedWithData carries a full domain.CartSnapshot.
	TopicCartUpdatedWithData = "cart-updated-with-data"
)

// Handler receives an event payload. The payload is nil for bare signals and
// a domain.CartSnapshot for snapshot events.
type Handler func(payload any)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	topic string
	id    uint64
}

// Bus is a topic-keyed publish/subscribe hub. Handlers are invoked
// synchronously on the publisher's goroutine in registration order, so a
// subscriber observes every event and events for one topic stay ordered.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]entry
	nextID      uint64
}

type entry struct {
	id      uint64
	handler Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]entry),
	}
}

// Subscribe registers handler for topic. The same handler may be registered
// more than once; each registration is invoked.
func (b *Bus) Subscribe(topic string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subscribers[topic] = append(b.subscribers[topic], entry{id: b.nextID, handler: handler})
	return Subscription{topic: topic, id: b.nextID}
}

// Unsubscribe removes a single registration. Unknown subscriptions are
// ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.subscribers[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			b.subscribers[sub.topic] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Publish delivers payload to every handler registered for topic.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	entries := make([]entry, len(b.subscribers[topic]))
	copy(entries, b.subscribers[topic])
	b.mu.RUnlock()

	for _, e := range entries {
		e.handler(payload)
	}
}

// PublishSnapshot publishes the snapshot event followed by the bare update
// signal. Payload subscribers see the new state before signal-only
// subscribers schedule a re-read.
func (b *Bus) PublishSnapshot(snapshot domain.CartSnapshot) {
	b.Publish(TopicCartUpdatedWithData, snapshot)
	b.Publish(TopicCartUpdated, nil)
}
