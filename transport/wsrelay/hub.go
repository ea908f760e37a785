// Package wsrelay is a reference Deliverer built on gorilla/websocket and
// chi: each connected session gets a buffered outbound channel drained by
// a writer goroutine, and DeliverUpdate/DeliverCommand are non-blocking
// sends into that channel. It is a worked example, not the authoritative
// production transport.
package wsrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/deluan/syncplay"
	synclog "github.com/deluan/syncplay/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireMessage is the envelope actually written to the socket.
type wireMessage struct {
	Type    string      `json:"type"` // "update" or "command"
	Payload interface{} `json:"payload"`
}

type conn struct {
	sessionID string
	ws        *websocket.Conn
	send      chan wireMessage
}

// Hub tracks one *conn per connected session and implements
// syncplay.Deliverer over them.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*conn)}
}

// Router mounts the WebSocket upgrade endpoint on r.
func (h *Hub) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/SyncPlay/ws/{sessionId}", h.handleWebSocket)
	return r
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		synclog.Warn(r.Context(), "websocket upgrade failed", "session", sessionID, "err", err)
		return
	}
	c := &conn{sessionID: sessionID, ws: ws, send: make(chan wireMessage, sendBufferSize)}

	h.mu.Lock()
	h.conns[sessionID] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// readPump drains (and discards, beyond deadline resets) client frames;
// inbound requests arrive over whatever channel the embedding service
// routes them through — this package only delivers outbound messages.
func (h *Hub) readPump(c *conn) {
	defer h.remove(c.sessionID)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[sessionID]; ok {
		close(c.send)
		delete(h.conns, sessionID)
	}
}

func (h *Hub) deliver(sessionID string, msg wireMessage) error {
	h.mu.RLock()
	c, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return nil // session not connected here; dropped
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return nil // buffer full, slow consumer: drop rather than block
	}
}

// DeliverUpdate implements syncplay.Deliverer.
func (h *Hub) DeliverUpdate(ctx context.Context, sessionID string, update syncplay.GroupUpdate) error {
	return h.deliver(sessionID, wireMessage{Type: "update", Payload: update})
}

// DeliverCommand implements syncplay.Deliverer.
func (h *Hub) DeliverCommand(ctx context.Context, sessionID string, command syncplay.Command) error {
	return h.deliver(sessionID, wireMessage{Type: "command", Payload: command})
}

var _ syncplay.Deliverer = (*Hub)(nil)
