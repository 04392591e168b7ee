// Package pubsub fans match and admin mutation events out to SSE clients,
// optionally through NATS JetStream so every instance sees every event.
package pubsub

import (
	"sync"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/metrics"
)

// Event types published after each successful mutation.
const (
	MatchCreated       = "matches:create"
	MatchesBulkCreated = "matches:bulk-create"
	MatchUpdated       = "matches:update"
	MatchDeleted       = "matches:delete"
	MatchesBulkDeleted = "matches:bulk-delete"
	ScrapeIngested     = "matches:scraped"
	ScrapedReplaced    = "matches:scraped-replace"
	MatchApproved      = "review:approve"
	MatchRejected      = "review:reject"
	TournamentCreated  = "tournaments:create"
	TournamentUpdated  = "tournaments:update"
	TournamentDeleted  = "tournaments:delete"
	TargetCreated      = "targets:create"
	TargetUpdated      = "targets:update"
	TargetDeleted      = "targets:delete"
	ScraperHealth      = "scraper:health"
	ScrapeTriggered    = "scraper:trigger"
)

// Event represents a pubsub event
type Event struct {
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, payload map[string]interface{}) Event {
	return Event{Type: eventType, Payload: payload, Timestamp: time.Now().UnixMilli()}
}

// Publisher is the write side used by the service layer.
type Publisher interface {
	Publish(Event)
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publisher
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// fanout is the subscriber list shared by every bus implementation.
// Delivery never blocks: a full subscriber channel misses the event.
type fanout struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
	name        string
}

func (f *fanout) subscribe() chan Event {
	ch := make(chan Event, f.buffer)

	f.mu.Lock()
	f.subscribers = append(f.subscribers, ch)
	n := len(f.subscribers)
	f.mu.Unlock()

	logger.Debug(f.name+": New subscriber added", "total_subscribers", n)
	return ch
}

func (f *fanout) unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(ch)
			logger.Debug(f.name+": Subscriber removed", "remaining_subscribers", len(f.subscribers))
			return
		}
	}
}

func (f *fanout) broadcast(event Event) {
	f.mu.RLock()
	subs := make([]chan Event, len(f.subscribers))
	copy(subs, f.subscribers)
	f.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			logger.Warn(f.name+": Skipping slow subscriber", "event_type", event.Type)
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subscribers {
		close(sub)
	}
	f.subscribers = nil
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// PubSub is the in-process bus handed to handlers and the service layer
type PubSub struct {
	fanout
	upstream Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{fanout: fanout{buffer: 10, name: "PubSub"}}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher.
// Publish goes to the upstream only; whatever the upstream delivers back
// (from this instance or any other) reaches local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{fanout: fanout{buffer: 10, name: "PubSub"}, upstream: upstream}

	go func() {
		ch := upstream.Subscribe()
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			ps.broadcast(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event { return ps.subscribe() }

// Unsubscribe removes a subscriber
func (ps *PubSub) Unsubscribe(ch chan Event) { ps.unsubscribe(ch) }

// SubscriberCount returns the number of local subscribers.
func (ps *PubSub) SubscriberCount() int { return ps.count() }

// Publish sends an event to the upstream if there is one, else to local
// subscribers directly.
func (ps *PubSub) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	metrics.MatchEvents.WithLabelValues(event.Type).Inc()

	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.broadcast(event)
}
