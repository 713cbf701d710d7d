// Package hub fans session events out to monitoring clients over
// websockets, using the channel-based broadcast pattern: one goroutine
// owns the client set, writers never touch connections directly.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/voxrelay/voxrelay/pkg/relay"
)

// recentCap bounds the replay buffer handed to newly connected monitors.
const recentCap = 50

// Stats is a snapshot of hub activity, reported on the health endpoint.
type Stats struct {
	MonitorClients  int    `json:"monitorClients"`
	EventsBroadcast uint64 `json:"eventsBroadcast"`
	EventsDropped   uint64 `json:"eventsDropped"`
}

// Hub maintains the set of monitor clients and broadcasts session
// events to them. It implements relay.Observer.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	recent []relay.Event

	events  atomic.Uint64
	dropped atomic.Uint64

	logger *slog.Logger
}

// New creates a monitor hub. Run must be started before clients attach.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "hub"),
	}
}

// Run owns the client set until ctx is cancelled.
// It should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("monitor connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("monitor disconnected", "remaining", count)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow monitor: drop it rather than stall the hub.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow monitor client")
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// attach registers a client, giving up if the hub has shut down.
func (h *Hub) attach(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// detach unregisters a client, giving up if the hub has shut down. Run
// closes client send channels itself on shutdown, so skipping the send
// here never strands the writer.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// OnEvent implements relay.Observer: the event is recorded in the replay
// buffer and broadcast to every connected monitor. Never blocks.
func (h *Hub) OnEvent(ev relay.Event) {
	h.mu.Lock()
	h.recent = append(h.recent, ev)
	if len(h.recent) > recentCap {
		h.recent = h.recent[len(h.recent)-recentCap:]
	}
	h.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event failed", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
		h.events.Add(1)
	default:
		h.dropped.Add(1)
	}
}

// Recent returns a copy of the replay buffer, oldest first.
func (h *Hub) Recent() []relay.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]relay.Event, len(h.recent))
	copy(out, h.recent)
	return out
}

// ClientCount returns the number of connected monitors.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of hub activity.
func (h *Hub) Stats() Stats {
	return Stats{
		MonitorClients:  h.ClientCount(),
		EventsBroadcast: h.events.Load(),
		EventsDropped:   h.dropped.Load(),
	}
}

// Verify Hub implements relay.Observer at compile time.
var _ relay.Observer = (*Hub)(nil)
