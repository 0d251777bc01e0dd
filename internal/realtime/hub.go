// Package realtime pushes product listing updates to connected WebSocket clients
// and accepts product commands from them.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront/internal/services"
)

// Event names sent over the socket.
const (
	EventProductsUpdated = "productsUpdated"
	EventProductAdded    = "productAdded"
	EventProductDeleted  = "productDeleted"
	EventError           = "error"

	EventAddProduct    = "addProduct"
	EventDeleteProduct = "deleteProduct"
)

// Message is the JSON frame exchanged with clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Conn is the part of a WebSocket connection the hub needs.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

// writeDeadliner is implemented by real WebSocket connections.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

const (
	// subscriberQueueSize bounds the messages waiting for one slow subscriber.
	subscriberQueueSize = 32
	writeTimeout        = 10 * time.Second
)

// ErrSubscriberGone is returned when sending to a closed or overflowing subscriber.
var ErrSubscriberGone = errors.New("subscriber is no longer receiving")

// Subscriber owns a bounded outbound queue drained by its own writer goroutine,
// so a stalled connection never blocks the caller of Send.
type Subscriber struct {
	conn   Conn
	queue  chan Message
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// Send queues msg without blocking. It fails when the queue is full or closed.
func (s *Subscriber) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberGone
	}
	select {
	case s.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: queue full", ErrSubscriberGone)
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
}

// Wait blocks until the writer has finished. It returns only after the
// subscriber is unsubscribed.
func (s *Subscriber) Wait() {
	<-s.done
}

// writeLoop writes queued messages in order until the queue is closed.
// After a failed write the rest of the queue is discarded.
func (s *Subscriber) writeLoop(onFailure func(error)) {
	defer close(s.done)
	failed := false
	for msg := range s.queue {
		if failed {
			continue
		}
		if d, ok := s.conn.(writeDeadliner); ok {
			_ = d.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := s.conn.WriteJSON(msg); err != nil {
			failed = true
			onFailure(fmt.Errorf("%s write: %w", msg.Event, err))
		}
	}
}

// Hub tracks connected subscribers and broadcasts product events to them.
type Hub struct {
	subscribers map[*Subscriber]struct{}
	mu          sync.RWMutex
	writers     sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe registers conn and starts its writer.
func (h *Hub) Subscribe(conn Conn) *Subscriber {
	sub := &Subscriber{conn: conn, queue: make(chan Message, subscriberQueueSize), done: make(chan struct{})}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	h.writers.Add(1)
	go func() {
		defer h.writers.Done()
		sub.writeLoop(func(err error) {
			log.Printf("Dropping subscriber after failed %v", err)
			h.Unsubscribe(sub)
		})
	}()
	return sub
}

// Unsubscribe removes sub and closes its queue. Messages already queued are
// still written. Unknown subscribers are ignored.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	sub.close()
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close unsubscribes everyone and waits for pending writes to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.subscribers = make(map[*Subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	h.writers.Wait()
}

// Broadcast queues msg once for every subscriber connected right now and
// returns without waiting for delivery. A subscriber whose queue is full is dropped.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Send(msg); err != nil {
			log.Printf("Dropping subscriber on %s: %v", msg.Event, err)
			h.Unsubscribe(sub)
		}
	}
}

// NotifyProductChange sends the refreshed listing and then the change itself.
func (h *Hub) NotifyProductChange(_ context.Context, event services.ProductEvent) {
	if event.Snapshot != nil {
		h.Broadcast(Message{Event: EventProductsUpdated, Data: event.Snapshot})
	}
	switch event.Type {
	case services.ProductAdded:
		h.Broadcast(Message{Event: EventProductAdded, Data: event.Product})
	case services.ProductDeleted:
		h.Broadcast(Message{Event: EventProductDeleted, Data: event.ProductID})
	}
}
