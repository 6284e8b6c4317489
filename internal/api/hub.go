package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apachedragonfly/ekg-wave/internal/metrics"
)

const writeWait = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client serializa las escrituras: gorilla/websocket admite un solo writer
// concurrente y las ondas y los params llegan por goroutines distintas.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(kind int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, b)
}

// Hub reparte frames binarios y mensajes JSON a los monitores conectados.
type Hub struct {
	mu      sync.Mutex
	conns   map[*websocket.Conn]*client
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(log *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]*client), log: log, metrics: m}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = &client{conn: c}
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.ClientConnected()
	h.log.Info("ws client connected", "remote", c.RemoteAddr().String(), "clients", n)
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = c.Close()
	h.metrics.ClientDisconnected()
	h.log.Info("ws client disconnected", "remote", c.RemoteAddr().String())
}

func (h *Hub) snapshot() []*client {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) broadcast(kind int, b []byte) {
	for _, c := range h.snapshot() {
		if err := c.write(kind, b); err != nil {
			h.log.Debug("ws write failed", "err", err)
			h.remove(c.conn)
		}
	}
}

func (h *Hub) BroadcastBinary(b []byte) { h.broadcast(websocket.BinaryMessage, b) }

func (h *Hub) BroadcastText(b []byte) { h.broadcast(websocket.TextMessage, b) }

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	h.add(conn)
	defer h.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close desconecta a todos, para el shutdown del servidor.
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		h.remove(c.conn)
	}
}
