// Package eventbus is an in-process publish/subscribe hop that keeps
// telemetry off the request path: the failover router publishes one event per
// provider attempt and a log subscriber drains them.
//
// Publish never blocks. A subscriber whose buffer is full misses the event
// and the bus counts it in Dropped. Nothing is persisted.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// Publisher is the write side, all that producers depend on.
type Publisher interface {
	Publish(topic string, payload any)
}

// EventBus is the interface for publishing and subscribing to topics.
type EventBus interface {
	Publisher
	Subscribe(topic string) <-chan Event
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 100

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu      sync.RWMutex
	topics  map[string][]chan Event
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// New returns a Bus whose subscribers buffer DefaultBuffer events.
func New() *Bus {
	return NewWithBuffer(DefaultBuffer)
}

// NewWithBuffer returns a Bus with the given per-subscriber capacity.
// Values below 1 fall back to DefaultBuffer.
func NewWithBuffer(n int) *Bus {
	if n < 1 {
		n = DefaultBuffer
	}
	return &Bus{topics: make(map[string][]chan Event), buffer: n}
}

// Subscribe returns a channel receiving every later event on topic.
// On a closed bus the channel is already closed.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.topics[topic] = append(b.topics[topic], ch)
	return ch
}

// Publish fans payload out to the subscribers of topic.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.topics[topic] {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel so consumer loops end. Later
// Publish calls are no-ops. Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.topics {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.topics, topic)
	}
}
