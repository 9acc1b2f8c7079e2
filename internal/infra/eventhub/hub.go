// Package eventhub fans domain events out to in-process subscribers.
package eventhub

import (
	"context"
	"sync"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Hub delivers published events to every open subscription.
// A subscriber whose buffer is full misses the event; Publish never blocks.
type Hub struct {
	subs   map[*subscription]struct{}
	mu     sync.Mutex
	buffer int
}

// New creates a Hub.
func New() *Hub {
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		buffer: DefaultBuffer,
	}
}

// Subscribe opens a subscription. It is closed when ctx ends or Close is called.
// Events for which accept returns false are skipped; nil accepts all.
func (h *Hub) Subscribe(ctx context.Context, accept func(domain.Event) bool, initial ...domain.Event) domain.Subscription {
	s := &subscription{
		hub:    h,
		ch:     make(chan domain.Event, h.buffer+len(initial)),
		accept: accept,
		done:   make(chan struct{}),
	}
	for _, ev := range initial {
		s.ch <- ev
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s
}

// Publish delivers ev to all matching subscribers and returns how many got it.
func (h *Hub) Publish(ev domain.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.subs {
		if s.accept != nil && !s.accept(ev) {
			continue
		}
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll closes every open subscription.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		_ = s.Close()
	}
}

type subscription struct {
	hub    *Hub
	ch     chan domain.Event
	accept func(domain.Event) bool
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.Event {
	return s.ch
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
		close(s.done)
	})
	return nil
}

// InsertsInto accepts InsertEvents for table.
func InsertsInto(table string) func(domain.Event) bool {
	return func(ev domain.Event) bool {
		ins, ok := ev.(domain.InsertEvent)
		return ok && ins.Table == table
	}
}

// AuthChanges accepts AuthChangeEvents.
func AuthChanges(ev domain.Event) bool {
	_, ok := ev.(domain.AuthChangeEvent)
	return ok
}
