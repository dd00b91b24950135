package gateway

import (
	"errors"
	"sync"
	"sync/atomic"

	"skylink-gateway/internal/telemetry"
)

// Bus distributes telemetry frames to live subscribers without ever
// blocking the publisher. A subscriber whose channel is full has the frame
// dropped; latency beats completeness on this path, the cache keeps the
// authoritative latest state anyway.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- telemetry.Frame
	stats       map[string]*subscriberStats
	published   atomic.Uint64
}

type subscriberStats struct {
	sent    atomic.Uint64
	dropped atomic.Uint64
}

var (
	// ErrSubscriberExists is returned when a subscriber ID is already taken.
	ErrSubscriberExists = errors.New("subscriber id already exists")

	// ErrSubscriberNotFound is returned when unsubscribing an unknown ID.
	ErrSubscriberNotFound = errors.New("subscriber id not found")
)

// NewBus returns an empty fan-out bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan<- telemetry.Frame),
		stats:       make(map[string]*subscriberStats),
	}
}

// Subscribe registers ch to receive every frame published after this call.
// The channel stays owned by the caller and is never closed by the bus.
func (b *Bus) Subscribe(id string, ch chan<- telemetry.Frame) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	b.subscribers[id] = ch
	b.stats[id] = &subscriberStats{}
	return nil
}

// Unsubscribe removes a subscriber. Callers must unsubscribe when their
// consuming side goes away, otherwise the handle leaks.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(b.subscribers, id)
	delete(b.stats, id)
	return nil
}

// Publish delivers frame to all current subscribers. Full channels drop
// the frame and bump the subscriber's drop counter; Publish never blocks.
func (b *Bus) Publish(frame telemetry.Frame) {
	b.published.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- frame:
			b.stats[id].sent.Add(1)
		default:
			b.stats[id].dropped.Add(1)
		}
	}
}

// BusStats is a snapshot of publish/delivery counters.
type BusStats struct {
	Published uint64                     `json:"published"`
	Sent      uint64                     `json:"sent"`
	Dropped   uint64                     `json:"dropped"`
	PerClient map[string]SubscriberStats `json:"per_client"`
}

// SubscriberStats holds per-subscriber delivery counters.
type SubscriberStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() BusStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := BusStats{
		Published: b.published.Load(),
		PerClient: make(map[string]SubscriberStats, len(b.stats)),
	}
	for id, st := range b.stats {
		sent := st.sent.Load()
		dropped := st.dropped.Load()
		out.Sent += sent
		out.Dropped += dropped
		out.PerClient[id] = SubscriberStats{Sent: sent, Dropped: dropped}
	}
	return out
}
