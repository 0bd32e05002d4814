package realtime

import (
	"context"
	"sync"
)

// Ensure Hub implements Broker
var _ Broker = (*Hub)(nil)

// Hub is an in-process Broker. It serves a single server instance.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*hubSubscription]struct{}
	closed bool
}

// NewHub creates an empty in-process broker.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*hubSubscription]struct{})}
}

// Publish signals the current subscribers of topic without blocking.
func (h *Hub) Publish(_ context.Context, topic string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for sub := range h.topics[topic] {
		signal(sub.ch)
	}
	return nil
}

// Subscribe registers a subscription on topic.
func (h *Hub) Subscribe(_ context.Context, topic string) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	sub := &hubSubscription{hub: h, topic: topic, ch: make(chan struct{}, 1)}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*hubSubscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close drops all subscriptions; later calls fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.topics = make(map[string]map[*hubSubscription]struct{})
	return nil
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[sub.topic]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

type hubSubscription struct {
	hub   *Hub
	topic string
	ch    chan struct{}
	once  sync.Once
}

func (s *hubSubscription) C() <-chan struct{} { return s.ch }

func (s *hubSubscription) Close() error {
	s.once.Do(func() { s.hub.remove(s) })
	return nil
}
