package events

import (
	"sync"
	"time"
)

// EventBus provides publish/subscribe for run events.
type EventBus interface {
	Publisher
	Subscribe(filter ...EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
	History(filter ...EventType) []Event
}

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 64

type subscriber struct {
	ch     chan Event
	filter map[EventType]bool // empty means all events
}

func (s subscriber) wants(t EventType) bool {
	return len(s.filter) == 0 || s.filter[t]
}

// MemoryBus is an in-memory EventBus that also keeps every published
// event for later inspection.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	history     []Event
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		history: make([]Event, 0, 128),
	}
}

func (b *MemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.history = append(b.history, event)
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, sub := range subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
}

func (b *MemoryBus) Subscribe(filter ...EventType) <-chan Event {
	sub := subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(filter) > 0 {
		sub.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			sub.filter[f] = true
		}
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return sub.ch
}

func (b *MemoryBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// History returns published events in order, limited to the given types
// when any are supplied.
func (b *MemoryBus) History(filter ...EventType) []Event {
	want := subscriber{}
	if len(filter) > 0 {
		want.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			want.filter[f] = true
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, e := range b.history {
		if want.wants(e.Type) {
			result = append(result, e)
		}
	}
	return result
}
