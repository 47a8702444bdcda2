// Package events fans tab state changes out to streaming HTTP clients.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/tabcore/internal/types"
)

const subscriberBufSize = 256

// Message is one encoded event ready to be written to a stream.
type Message struct {
	Type    string
	TabID   string
	Payload string
}

// Broker fans out events to all subscribed stream clients.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Message
	nextID      atomic.Int64
	dropped     atomic.Uint64
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Message),
	}
}

// Subscribe registers a new client. Returns the subscriber ID and a channel
// to receive messages on. The channel is buffered; slow consumers will have
// messages dropped.
func (b *Broker) Subscribe() (int64, <-chan Message) {
	id := b.nextID.Add(1)
	ch := make(chan Message, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish encodes evt and sends it to all subscribers. Non-blocking: slow
// clients have events dropped.
func (b *Broker) Publish(evt types.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("event encode failed", "type", evt.Type, "error", err)
		return
	}
	msg := Message{Type: evt.Type, TabID: evt.TabID, Payload: string(payload)}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			b.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many messages were discarded for slow subscribers.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Close unsubscribes every client, ending their streams.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
