// Package hub fans out "state changed" wake-ups to subscribers.
package hub

import (
	"context"
	"sync"
)

// Hub holds a set of single-slot wake-up channels. Signal never blocks: a
// subscriber that has not drained its previous wake-up just keeps the one
// pending signal.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is one subscriber's wake-up channel.
type Subscription struct {
	hub  *Hub
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

// C returns the wake-up channel. It is closed by Close.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Close deregisters the subscription and closes its channel. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		close(s.done)
		s.hub.mu.Unlock()
	})
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan struct{}, 1), done: make(chan struct{})}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// SubscribeContext registers a subscriber that is closed when ctx is done.
func (h *Hub) SubscribeContext(ctx context.Context) *Subscription {
	sub := h.Subscribe()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub
}

// Signal wakes every subscriber.
func (h *Hub) Signal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
			// A wake-up is already pending.
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll closes every subscription. Used on shutdown so ranging
// subscribers terminate.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}
