// Package events provides the single typed progress stream for the
// application. The pipeline and merge engine publish ProgressUpdate
// values; any number of subscribers (the websocket handler, in-process
// callbacks, tests) consume them.
package events

import (
	"sync"

	"github.com/vrsandeep/tome-go/internal/models"
)

const subscriberBuffer = 64

// Hub fans ProgressUpdate values out to all current subscribers.
// Publishing never blocks: a subscriber that falls behind misses
// updates rather than stalling the download pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[chan models.ProgressUpdate]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan models.ProgressUpdate]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. The cancel function closes the channel.
func (h *Hub) Subscribe() (<-chan models.ProgressUpdate, func()) {
	ch := make(chan models.ProgressUpdate, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscribeFunc adapts the single-callback consumption style: f is
// invoked for every update on a dedicated goroutine until the returned
// cancel function is called.
func (h *Hub) SubscribeFunc(f func(models.ProgressUpdate)) func() {
	ch, cancel := h.Subscribe()
	go func() {
		for update := range ch {
			f(update)
		}
	}()
	return cancel
}

// Publish delivers the update to every subscriber without blocking.
func (h *Hub) Publish(update models.ProgressUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- update:
		default:
			// Slow subscriber; drop rather than stall the pipeline.
		}
	}
}

// SubscriberCount reports how many subscribers are registered.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
