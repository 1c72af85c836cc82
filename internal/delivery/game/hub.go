package game

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lizboard/internal/metrics"
	gameUsecase "lizboard/internal/usecase/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// Message is one frame on the state stream.
type Message struct {
	Type      string             `json:"type"` // "render" or "slide"
	State     *gameUsecase.State `json:"state,omitempty"`
	Direction string             `json:"direction,omitempty"`
}

// Hub fans session updates out to every connected renderer. Render is
// called with the session locked, so it only queues.
type Hub struct {
	log      *zap.SugaredLogger
	messages chan []byte

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:      log,
		messages: make(chan []byte, 256),
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Render(state gameUsecase.State) {
	h.publish(Message{Type: "render", State: &state})
}

func (h *Hub) SlideIn(direction string) {
	h.publish(Message{Type: "slide", Direction: direction})
}

func (h *Hub) publish(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Errorw("failed to marshal stream message", "type", m.Type, "error", err)
		return
	}
	select {
	case h.messages <- data:
	default:
		metrics.StreamDropped.Inc()
		h.log.Warnw("stream queue full, message dropped", "type", m.Type)
	}
}

// Run broadcasts queued messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case data := <-h.messages:
			h.broadcast(data)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warnw("write to renderer failed", "remote", conn.RemoteAddr().String(), "error", err)
			conn.Close()
			delete(h.clients, conn)
			metrics.StreamClients.Dec()
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	metrics.StreamClients.Inc()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
		metrics.StreamClients.Dec()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	metrics.StreamClients.Set(0)
}

// Clients is the number of connected renderers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
