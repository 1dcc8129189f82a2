package board

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"omega/internal/domain"
	"omega/internal/usecase/session"
)

const wsIdlePingInterval = 30 * time.Second

// Hub fans board and engine updates out to every connected viewer. The
// Broadcast methods never block, so they are safe to call from the session
// lock and from the engine's reader goroutine.
type Hub struct {
	mu                   sync.Mutex
	clients              map[*Client]struct{}
	broadcastState       chan session.State
	broadcastSuggestions chan []domain.MoveData
}

type Client struct {
	hub  *Hub
	send chan []byte
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:              make(map[*Client]struct{}),
		broadcastState:       make(chan session.State, 16),
		broadcastSuggestions: make(chan []domain.MoveData, 16),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case st := <-h.broadcastState:
			h.sendAll(wsMessage{Type: "state", Payload: mustMarshal(st)})
		case moves := <-h.broadcastSuggestions:
			h.sendAll(wsMessage{Type: "suggestions", Payload: mustMarshal(moves)})
		}
	}
}

func (h *Hub) BroadcastState(st session.State) {
	select {
	case h.broadcastState <- st:
	default:
	}
}

func (h *Hub) BroadcastSuggestions(moves []domain.MoveData) {
	select {
	case h.broadcastSuggestions <- moves:
	default:
	}
}

func (h *Hub) sendAll(msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.sendJSON(msg)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

// sendJSON drops the message for a client that is not keeping up.
func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
