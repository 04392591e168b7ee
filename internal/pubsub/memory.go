package pubsub

import (
	"sync"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
)

// MemoryBus is an in-process upstream that keeps the most recent events.
// It stands in for NATS in tests and when no broker is configured, and
// lets a reconnecting SSE client catch up via Since.
type MemoryBus struct {
	fanout
	histMu  sync.RWMutex
	history []Event
	limit   int
}

// NewMemoryBus creates a bus retaining up to limit events.
func NewMemoryBus(limit int) *MemoryBus {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryBus{fanout: fanout{buffer: 100, name: "Memory bus"}, limit: limit}
}

// Publish records the event and delivers it to subscribers.
func (b *MemoryBus) Publish(event Event) {
	b.histMu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
	b.histMu.Unlock()

	b.broadcast(event)
	logger.Debug("Memory bus: Published event", "event_type", event.Type)
}

// Subscribe creates a subscription channel for events
func (b *MemoryBus) Subscribe() chan Event { return b.subscribe() }

// Unsubscribe removes a subscription channel
func (b *MemoryBus) Unsubscribe(ch chan Event) { b.unsubscribe(ch) }

// Events returns a copy of the retained events, oldest first.
func (b *MemoryBus) Events() []Event {
	b.histMu.RLock()
	defer b.histMu.RUnlock()
	return append([]Event{}, b.history...)
}

// Types returns the type of every retained event, oldest first.
func (b *MemoryBus) Types() []string {
	events := b.Events()
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

// Since returns retained events with a timestamp after ts.
func (b *MemoryBus) Since(ts int64) []Event {
	var out []Event
	for _, e := range b.Events() {
		if e.Timestamp > ts {
			out = append(out, e)
		}
	}
	return out
}

// GetSubscriberCount returns the number of active subscribers
func (b *MemoryBus) GetSubscriberCount() int { return b.count() }

// Close closes all subscriptions
func (b *MemoryBus) Close() {
	logger.Info("Memory bus: Closing all subscriptions", "active_subscriptions", b.count())
	b.closeAll()
}
