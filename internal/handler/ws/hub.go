package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"MacroPipe/internal/usecase"
	xlogger "MacroPipe/pkg/logger"
)

// sendBuffer is the per-client outbound queue; slow clients that fall this
// far behind are disconnected rather than blocking the broadcast path.
const sendBuffer = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub broadcasts job lifecycle events to connected websocket clients.
// It implements usecase.JobNotifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *xlogger.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// dropped is guarded by the hub mutex; once set, send is closed and the
	// client is out of the map.
	dropped bool
}

// NewHub creates an empty hub.
func NewHub(lgr *xlogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  lgr,
	}
}

// NotifyJobEvent implements usecase.JobNotifier.
func (h *Hub) NotifyJobEvent(_ context.Context, ev usecase.JobEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Queue full; the client is not keeping up.
			h.dropLocked(c)
		}
	}
}

// dropLocked disconnects a client exactly once. The caller holds h.mu; the
// flag keeps concurrent broadcasters and the reader's own teardown from
// closing the send channel twice.
func (h *Hub) dropLocked(cl *client) {
	if cl.dropped {
		return
	}
	cl.dropped = true
	delete(h.clients, cl)
	close(cl.send)
	_ = cl.conn.Close()
}

// RegisterRoutes attaches the websocket endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ws/jobs", h.serve)
}

func (h *Hub) serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debug("ws client connected", xlogger.String("remote", conn.RemoteAddr().String()))
	}

	go cl.writeLoop()
	cl.readLoop()
	h.remove(cl)
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	h.dropLocked(cl)
	h.mu.Unlock()
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		h.dropLocked(cl)
	}
}

// readLoop discards inbound frames; the feed is one-way. It exits when the
// client disconnects.
func (cl *client) readLoop() {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *client) writeLoop() {
	for payload := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
