// Package events fans the dispatcher's AccountEvent/MarketEvent streams
// out to WebSocket subscribers and, optionally, a Redis channel for
// other processes watching the same session.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hourglass-exchange/hourglass/internal/dispatcher"
	"github.com/hourglass-exchange/hourglass/internal/metrics"
)

// Envelope is the JSON message shape sent to WebSocket subscribers —
// exactly one of Account/Market is populated.
type Envelope struct {
	Type    string `json:"type"`
	Account any    `json:"account,omitempty"`
	Market  any    `json:"market,omitempty"`
}

// Hub fans out every event the dispatcher publishes to connected
// WebSocket clients. Connection bookkeeping and the broadcast loop mirror
// a standard hub/register/unregister pattern; Broadcast never blocks a
// slow or stalled client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	sinksMu sync.RWMutex
	sinks   []Sink
}

// Sink receives every envelope the Hub publishes, in addition to the
// WebSocket broadcast. RedisRelay implements this to mirror the same
// stream onto a Redis channel without draining the dispatcher's event
// channels a second time.
type Sink interface {
	Publish(env Envelope)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Subscribe registers an additional Sink to receive every future
// envelope. Not safe to call concurrently with Publish from the caller's
// own goroutine, but fine from any goroutine since it takes sinksMu.
func (h *Hub) Subscribe(sink Sink) {
	h.sinksMu.Lock()
	defer h.sinksMu.Unlock()
	h.sinks = append(h.sinks, sink)
}

// Run starts the hub's event loop and drains d's event channels into it.
// Must be called in a goroutine; stops when ctx is cancelled.
func (h *Hub) Run(ctx context.Context, d *dispatcher.Dispatcher) {
	go h.pump(ctx, d)

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(len(h.clients)))
			slog.Info("event subscriber connected", "total", len(h.clients))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(len(h.clients)))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// pump reads from the dispatcher's event channels and re-publishes them
// as JSON envelopes.
func (h *Hub) pump(ctx context.Context, d *dispatcher.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.AccountEvents():
			h.Publish(Envelope{Type: "account", Account: ev})
		case ev := <-d.MarketEvents():
			h.Publish(Envelope{Type: "market", Market: ev})
		}
	}
}

// Publish encodes env and broadcasts it to every connected client,
// dropping the message rather than blocking if the buffer is full.
func (h *Hub) Publish(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("event envelope marshal failed", "err", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("dropping event broadcast, subscriber buffer full")
	}

	h.sinksMu.RLock()
	defer h.sinksMu.RUnlock()
	for _, sink := range h.sinks {
		sink.Publish(env)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// HandleWS upgrades a GET /ws request into an event-stream connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
