package web

import (
	"net/http"
	"sync"
	"time"

	"cluster-monitor/internal/monitor"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// wsClient is one dashboard connection. Gorilla permits only one
// concurrent writer per conn, and both the HTTP handler goroutine
// (connect-time snapshot) and the monitor goroutine (Broadcast) write,
// so every write goes through writeMu.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(body []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, body)
}

// Hub pushes each newly published snapshot to all connected dashboard
// clients. Wire its Broadcast to Monitor.OnPublish.
type Hub struct {
	upgrader websocket.Upgrader
	cache    *monitor.Cache
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

func NewHub(cache *monitor.Cache, logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// read-only feed, same data as /api/data
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cache:   cache,
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	// New clients get the current snapshot right away instead of waiting
	// for the next cycle.
	h.send(client, h.cache.Current())

	// Reader loop exists only to notice the close.
	go func() {
		defer h.drop(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a snapshot to every connected client, dropping the
// ones that fail.
func (h *Hub) Broadcast(snap monitor.Snapshot) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.send(c, snap)
	}
}

func (h *Hub) send(client *wsClient, snap monitor.Snapshot) {
	body, err := sonic.Marshal(snap)
	if err != nil {
		h.logger.Error().Err(err).Msg("snapshot encode failed")
		return
	}

	if err := client.write(body); err != nil {
		h.drop(client)
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	client.conn.Close()
}
