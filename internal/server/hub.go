package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vesaa/netspeed/internal/agent"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// widgets are served from file:// or other local origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamClient is one websocket subscriber.
type streamClient struct {
	id   string
	conn *websocket.Conn
	send chan agent.Reading
}

// Hub fans readings out to websocket subscribers. Client bookkeeping happens
// only inside run.
type Hub struct {
	clients    map[string]*streamClient
	register   chan *streamClient
	unregister chan string
	broadcast  chan agent.Reading
	done       chan struct{}
	log        *zap.SugaredLogger
}

func newHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[string]*streamClient),
		register:   make(chan *streamClient),
		unregister: make(chan string),
		broadcast:  make(chan agent.Reading, 16),
		done:       make(chan struct{}),
		log:        log,
	}
}

// run serves the hub until ctx is done, then closes every client.
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			return

		case c := <-h.register:
			h.clients[c.id] = c
			h.log.Debugw("stream client connected", "client", c.id, "total", len(h.clients))

		case id := <-h.unregister:
			if c, ok := h.clients[id]; ok {
				delete(h.clients, id)
				close(c.send)
				h.log.Debugw("stream client disconnected", "client", id, "total", len(h.clients))
			}

		case r := <-h.broadcast:
			for _, c := range h.clients {
				select {
				case c.send <- r:
				default:
					// slow client, drop this reading
				}
			}
		}
	}
}

// Broadcast queues a reading for every client without blocking the tick loop.
func (h *Hub) Broadcast(r agent.Reading) {
	select {
	case h.broadcast <- r:
	default:
		h.log.Debugw("stream broadcast queue full, dropping reading")
	}
}

func (h *Hub) add(c *streamClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// handleStream upgrades to a websocket and streams readings, starting with the latest.
func (s *Server) handleStream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := &streamClient{
		id:   uuid.NewString(),
		conn: ws,
		send: make(chan agent.Reading, sendBuffer),
	}
	client.send <- s.monitor.Latest()
	if !s.hub.add(client) {
		ws.Close()
		return
	}

	go s.writePump(client)
	go s.readPump(client)
}

// readPump only watches for the peer going away.
func (s *Server) readPump(c *streamClient) {
	defer func() {
		s.hub.remove(c.id)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case r, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(r); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
