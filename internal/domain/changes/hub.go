// Package changes fans out event list change notifications to subscribers.
package changes

import (
	"sync"
	"sync/atomic"
)

// Kind names what happened to the event list.
type Kind string

const (
	KindLogged   Kind = "logged"
	KindDeleted  Kind = "deleted"
	KindCleared  Kind = "cleared"
	KindMerged   Kind = "merged"
	KindSeeded   Kind = "seeded"
	KindRestored Kind = "restored"
)

// Change is one notification. Total is the stored event count afterwards.
type Change struct {
	Kind  Kind     `json:"kind"`
	IDs   []string `json:"ids,omitempty"`
	Count int      `json:"count"`
	Total int      `json:"total"`
	At    int64    `json:"at"`
}

const defaultBuffer = 16

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// Hub delivers each published Change to every subscriber. Publish never
// blocks: a subscriber whose buffer is full misses the change.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Change
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// NewHub creates a Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{subs: make(map[uint64]chan Change), buffer: defaultBuffer}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish sends c to all subscribers.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close unregisters and closes every subscriber. Later Subscribe calls get a
// closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
