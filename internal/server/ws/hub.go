package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/polylive/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	// Snapshots are large and infrequent, so a short queue is enough.
	sendBufferSize = 16
)

// upgrader configures the WebSocket upgrade parameters. Origin checks are
// left to the CORS middleware in front of the hub.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var errInvalidPayload = errors.New("ws: payload is not valid JSON")

// Envelope is the frame pushed to clients.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Config captures what the hub listens to and reports on connect.
type Config struct {
	Mode string
	// Channels maps signal bus channels to the envelope type their
	// payloads are pushed as.
	Channels map[string]string
	// Cache, when set, supplies the current snapshot to new clients.
	Cache     domain.SnapshotCache
	StartedAt time.Time
}

// Hub manages a set of connected WebSocket clients and broadcasts messages
// from the signal bus to all of them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	bus        domain.SignalBus
	cfg        Config
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewHub creates a new WebSocket hub that bridges a SignalBus to connected
// WebSocket clients.
func NewHub(bus domain.SignalBus, logger *slog.Logger, cfg Config) *Hub {
	cfg.Mode = strings.TrimSpace(strings.ToLower(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = "unknown"
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now().UTC()
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		bus:        bus,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// Run subscribes to the configured channels and then handles client
// registration and broadcasting until ctx is cancelled. Subscriptions are
// in place before Run starts accepting clients.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for channel, typ := range h.cfg.Channels {
		msgCh, err := h.bus.Subscribe(ctx, channel)
		if err != nil {
			h.logger.Error("ws: failed to subscribe to channel",
				slog.String("channel", channel),
				slog.String("error", err.Error()),
			)
			continue
		}
		h.logger.Info("ws: subscribed to channel", slog.String("channel", channel))
		go h.forward(ctx, channel, typ, msgCh)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client's send buffer is full; drop the message.
					h.logger.Warn("ws: dropping message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// forward wraps each bus payload in an Envelope and queues it for broadcast.
func (h *Hub) forward(ctx context.Context, channel, typ string, msgCh <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("ws: channel subscription closed",
					slog.String("channel", channel),
				)
				return
			}
			frame, err := envelope(typ, data)
			if err != nil {
				h.logger.Warn("ws: dropping malformed payload",
					slog.String("channel", channel),
					slog.String("error", err.Error()),
				)
				continue
			}
			select {
			case h.broadcast <- frame:
			case <-ctx.Done():
				return
			}
		}
	}
}

func envelope(typ string, payload []byte) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, errInvalidPayload
	}
	return json.Marshal(Envelope{Type: typ, Payload: payload})
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	// Queued before registering so nothing can close send underneath it.
	c.sendInitial(r.Context())
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	// Start read and write pumps in separate goroutines.
	go c.writePump()
	go c.readPump()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection so control frames are processed. Clients
// have nothing to say beyond pongs; any read error ends the session.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// sendInitial pushes a status envelope so clients can mark the connection
// healthy at once, followed by the cached snapshot when there is one.
func (c *client) sendInitial(ctx context.Context) {
	uptime := max(int64(time.Since(c.hub.cfg.StartedAt).Seconds()), 0)
	status, err := json.Marshal(map[string]any{
		"mode":           c.hub.cfg.Mode,
		"ws_connected":   true,
		"uptime_seconds": uptime,
	})
	if err == nil {
		if frame, err := envelope("status", status); err == nil {
			c.queue(frame)
		}
	}

	if c.hub.cfg.Cache == nil {
		return
	}
	snap, err := c.hub.cfg.Cache.GetSnapshot(ctx)
	if err != nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if frame, err := envelope("snapshot", payload); err == nil {
		c.queue(frame)
	}
}

func (c *client) queue(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

// writePump pumps messages from the hub to the WebSocket connection as text
// frames, with periodic pings for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
