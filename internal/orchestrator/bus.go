package orchestrator

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventBus is the boundary through which orchestration components publish
// and receive events. Delivery is at-least-once: a broker-backed
// implementation may redeliver, so consumers must be idempotent or must
// deduplicate using the decision log trail.
type EventBus interface {
	// Publish sends an event to every subscriber of its name.
	Publish(event Event)
	// Subscribe returns a channel receiving events with the given name and
	// a cancel function that removes the subscription.
	Subscribe(name EventName) (<-chan Event, func())
}

// Bus is the in-process EventBus implementation. Each subscriber gets its
// own buffered channel; a slow subscriber is given a grace period before
// its copy of an event is dropped and counted.
type Bus struct {
	bufferSize   int
	subscribers  map[EventName][]*subscription
	droppedCount atomic.Uint64
	nextID       int
	mu           sync.RWMutex
}

// subscription guards its channel with a lifecycle lock: publishers send
// under the read lock, cancellation closes under the write lock, so a send
// can never hit a closed channel.
type subscription struct {
	id     int
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// send delivers the event unless the subscription has been cancelled.
// Returns false when the grace period expired and the copy was dropped.
func (s *subscription) send(event Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}

	select {
	case s.ch <- event:
		return true
	default:
	}

	// Channel full, give the receiver a chance to drain.
	select {
	case s.ch <- event:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

// NewBus creates a Bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		bufferSize:  bufferSize,
		subscribers: make(map[EventName][]*subscription),
	}
}

// Publish sends the event to every subscriber of event.Name.
// If a subscriber's channel is full, delivery is retried with a short
// timeout before that subscriber's copy is dropped.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.subscribers[event.Name]))
	copy(subs, b.subscribers[event.Name])
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.send(event) {
			count := b.droppedCount.Add(1)
			if count%10 == 1 { // Log every 10th drop to avoid spam
				log.Printf("[bus] WARNING: subscriber channel full, dropped event (total dropped: %d): name=%s task=%s",
					count, event.Name, event.TaskID)
			}
		}
	}
}

// Subscribe registers a new subscriber for the given event name.
func (b *Bus) Subscribe(name EventName) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, ch: make(chan Event, b.bufferSize)}
	b.subscribers[name] = append(b.subscribers[name], sub)

	cancel := func() {
		b.mu.Lock()
		subs := b.subscribers[name]
		found := false
		for i, s := range subs {
			if s.id == sub.id {
				b.subscribers[name] = append(subs[:i], subs[i+1:]...)
				found = true
				break
			}
		}
		b.mu.Unlock()
		if !found {
			return
		}

		// Taking the write lock waits out any publisher parked in a send
		// to this channel, so the close below cannot race a send.
		sub.mu.Lock()
		sub.closed = true
		close(sub.ch)
		sub.mu.Unlock()
	}
	return sub.ch, cancel
}

// DroppedCount returns the total number of subscriber deliveries dropped.
func (b *Bus) DroppedCount() uint64 {
	return b.droppedCount.Load()
}
