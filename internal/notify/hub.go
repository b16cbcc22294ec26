package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Hub is an in-process Notifier that fans events out to subscribers over
// buffered channels (the HTTP layer bridges these to SSE streams).
//
// Subscriber lists are created lazily on first Subscribe and torn down
// when the last subscriber for a journey unsubscribes, so an idle hub
// holds no per-journey state. Publishing to a journey nobody watches is a
// no-op.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan string]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[chan string]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for the journey's events. The returned
// cancel function removes the listener and, when it was the last one for
// the journey, releases the journey's subscriber list.
func (h *Hub) Subscribe(journeyID string) (<-chan string, func()) {
	ch := make(chan string, 8)

	h.mu.Lock()
	set, ok := h.subs[journeyID]
	if !ok {
		set = make(map[chan string]struct{})
		h.subs[journeyID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[journeyID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, journeyID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// NotifyJourneyUpdate delivers a journey-updated event to every
// subscriber. Sends are non-blocking: a subscriber whose buffer is full
// misses the event (it will refetch on the next one) rather than stalling
// the caller.
func (h *Hub) NotifyJourneyUpdate(_ context.Context, journeyID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[journeyID] {
		select {
		case ch <- journeyID:
		default:
			h.logger.Debug("dropping journey update, subscriber buffer full",
				"journey_id", journeyID)
		}
	}
	return nil
}

// SubscriberCount reports how many listeners the journey currently has.
func (h *Hub) SubscriberCount(journeyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[journeyID])
}
