package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const defaultBuffer = 16

// Hub is an in-process Broker. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	buffer int
	closed bool
}

// NewHub creates a Hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[int]chan Event), buffer: buffer}
}

// Publish fans e out to every current subscriber.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			zap.L().Warn("notify: subscriber lagging, dropping event",
				zap.Int("subscriber", id),
				zap.String("kind", string(e.Kind)),
				zap.String("id", e.ID),
			)
		}
	}
	return nil
}

// Subscribe registers a new subscriber until ctx is done.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, error) {
	h.mu.Lock()
	ch := make(chan Event, h.buffer)
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, nil
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(id)
	}()
	return ch, nil
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return nil
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}
