package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"cdim-evaluator/internal/observability/logging"
	"cdim-evaluator/internal/service/session"
)

const writeWait = 5 * time.Second

// Hub fans session changes out to every open page over WebSocket so other tabs
// re-render after an upload, discard or view change.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan session.Change
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewHub creates a hub. Run must be called for it to deliver anything.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan session.Change, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logging.WithComponent("ws-hub"),
	}
}

// Notify queues a change for broadcast. Changes are dropped when the queue is full.
func (h *Hub) Notify(c session.Change) {
	select {
	case h.broadcast <- c:
	default:
		h.logger.Warn().Str("kind", string(c.Kind)).Msg("Broadcast queue full, dropping change")
	}
}

// Run owns the client set and performs all writes until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.clients[conn] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client disconnected")

		case change := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(change); err != nil {
					h.logger.Debug().Err(err).Msg("Write error, dropping client")
					conn.Close()
					delete(h.clients, conn)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	select {
	case h.register <- conn:
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-time.After(writeWait):
				conn.Close()
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
