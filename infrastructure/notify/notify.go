// Package notify fans lightweight change events out to connected
// dashboards over server-sent events. Events name only the entity kind
// that changed; clients refetch whatever views they show.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event tells a subscriber that some records of one entity kind have
// changed.
type Event struct {
	Entity string    `json:"entity"`
	At     time.Time `json:"at"`
}

// Hub holds the live subscriber set. A nil *Hub drops every event,
// which lets operation code fire notifications unconditionally.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The returned cancel func must be
// called when the listener goes away; after cancel the channel is
// closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// BlocksChanged announces that block records changed.
func (h *Hub) BlocksChanged() {
	h.broadcast(Event{Entity: "blocks", At: time.Now()})
}

// StaffChanged announces that the staff directory changed.
func (h *Hub) StaffChanged() {
	h.broadcast(Event{Entity: "staff", At: time.Now()})
}

func (h *Hub) broadcast(ev Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer; it will catch up on its next refetch.
			slog.Warn("notify: dropping event, subscriber buffer full", slog.String("entity", ev.Entity))
		}
	}
}

// Handler streams events to one client until it disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		events, cancel := h.Subscribe()
		defer cancel()

		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case ev, open := <-events:
				if !open {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					slog.Warn("notify: marshal event failed", slog.Any("err", err))
					continue
				}
				fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
