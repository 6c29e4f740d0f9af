package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"

	"payoffquiz/internal/broadcast"
	"payoffquiz/internal/logger"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type   string `json:"t"`
	Choice string `json:"choice,omitempty"`
	Force  bool   `json:"force,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type  string          `json:"t"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	Room     string
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
}

func NewClient(room, playerID string, conn *websocket.Conn) *Client {
	return &Client{
		Room:     room,
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 16),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.Close(websocket.StatusNormalClosure, "room closed")
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages per-room WebSocket connections. It implements broadcast.Sink.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*Client),
	}
}

// Register adds a client to its room. A second connection for the same
// player replaces the first, whose Send channel is closed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[c.Room]
	if clients == nil {
		clients = make(map[string]*Client)
		h.rooms[c.Room] = clients
	}
	if prev, ok := clients[c.PlayerID]; ok && prev != c {
		close(prev.Send)
	}
	clients[c.PlayerID] = c
}

// Unregister removes the client and closes its Send channel. Unknown or
// already replaced clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.rooms[c.Room]
	if clients[c.PlayerID] != c {
		return
	}
	close(c.Send)
	delete(clients, c.PlayerID)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Reply queues a message for one client. Clients no longer registered are
// skipped since their Send channel is closed. Non-blocking: drops if channel full.
func (h *Hub) Reply(c *Client, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rooms[c.Room][c.PlayerID] != c {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Count returns the number of open connections in a room.
func (h *Hub) Count(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Deliver sends a broadcast message to every client of the room. Non-blocking:
// drops if a channel is full.
func (h *Hub) Deliver(room string, msg broadcast.Message) {
	data, err := json.Marshal(ServerMessage{Type: msg.Event, Data: json.RawMessage(msg.Data)})
	if err != nil {
		log := logger.Component("wshub")
		log.Error().Err(err).Str("room", room).Msg("marshal")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// CloseRoom closes every client of the room.
func (h *Hub) CloseRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.rooms[room] {
		close(c.Send)
	}
	delete(h.rooms, room)
}
