// Package realtime pushes waitlist changes to connected admin dashboards over WebSocket.
package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lovpen/lovpen-server/pkg/logger"
)

// StreamWaitlist is the only stream served by the hub.
const StreamWaitlist = "waitlist"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	defaultBufferSize = 64
)

// Message is the JSON frame delivered to subscribers.
type Message struct {
	Stream string    `json:"stream"`
	Event  string    `json:"event"`
	Data   any       `json:"data,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

type controlMessage struct {
	Action string `json:"action"`
}

// Hub fans waitlist events out to every connected admin client.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*connection]struct{}
	upgrader websocket.Upgrader
	now      func() time.Time
	log      *zap.Logger
}

// NewHub constructs a realtime hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*connection]struct{}),
		now:     time.Now,
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the request and streams events until the client disconnects.
func (h *Hub) Serve(subject string, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("subject", subject), zap.Error(err))
		return
	}

	client := &connection{
		hub:     h,
		socket:  socket,
		subject: subject,
		send:    make(chan Message, defaultBufferSize),
	}
	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// PublishWaitlistEvent broadcasts a waitlist change on the waitlist stream.
func (h *Hub) PublishWaitlistEvent(event string, payload any) {
	h.Broadcast(Message{Event: event, Data: payload})
}

// Broadcast delivers a message to every subscriber. Slow clients are dropped.
func (h *Hub) Broadcast(message Message) {
	message.Stream = StreamWaitlist
	if message.SentAt.IsZero() {
		message.SentAt = h.now().UTC()
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(message)
	}
}

// Close disconnects every subscriber with a close frame.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*connection, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.close()
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

type connection struct {
	hub     *Hub
	socket  *websocket.Conn
	subject string

	mu     sync.Mutex
	send   chan Message
	closed bool
}

func (c *connection) enqueue(message Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.hub.log.Warn("dropping slow realtime client", zap.String("subject", c.subject))
		c.closeLocked()
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected websocket close", zap.String("subject", c.subject), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(ctrl.Action), "ping") {
			c.enqueue(Message{Stream: StreamWaitlist, Event: "pong", SentAt: c.hub.now().UTC()})
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *connection) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.hub.unregister(c)
	close(c.send)
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		if parsed, err := url.Parse(host); err == nil {
			return hostWithoutPort(parsed.Host)
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
