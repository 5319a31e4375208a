package server

import (
	"encoding/json"
	"sync"
	"time"

	"soundfolio/logger"

	"github.com/gorilla/websocket"
)

// MessageType tags a pushed message.
type MessageType string

const (
	MsgTypePlayer   MessageType = "player"   // player view
	MsgTypeDuration MessageType = "duration" // a duration resolved
	MsgTypePlaylist MessageType = "playlist" // playlist re-rendered
	MsgTypeError    MessageType = "error"    // catalog failed to load
	MsgTypePing     MessageType = "ping"     // heartbeat
	MsgTypePong     MessageType = "pong"     // heartbeat reply
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// WSMessage is the envelope of every WebSocket frame.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// DurationData is the payload of a duration message.
type DurationData struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Client is one WebSocket listener.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans player updates out to every connected listener.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once

	// last is replayed to clients when they connect.
	last map[MessageType][]byte
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		last:       make(map[MessageType][]byte),
	}
}

// Run is the hub loop; it returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.broadcastAll(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	for _, t := range []MessageType{MsgTypePlaylist, MsgTypePlayer} {
		if data, ok := h.last[t]; ok {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
	logger.Debug("listener connected", logger.Int("clients", len(h.clients)))
}

// removeClient must be called with h.mu held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		logger.Debug("listener disconnected", logger.Int("clients", len(h.clients)))
	}
}

func (h *Hub) broadcastAll(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			// Send buffer full; drop the slow client.
			h.removeClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
}

// ClientCount returns the number of connected listeners.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish marshals data into a typed message and broadcasts it. Player and
// playlist messages are remembered for late joiners.
func (h *Hub) Publish(t MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("failed to encode push message", logger.String("type", string(t)), logger.ErrorField(err))
		return
	}
	msg, err := json.Marshal(&WSMessage{Type: t, Data: payload, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return
	}

	if t == MsgTypePlayer || t == MsgTypePlaylist {
		h.mu.Lock()
		h.last[t] = msg
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		logger.Warn("push queue full, dropping message", logger.String("type", string(t)))
	}
}

// ---- Client ----

// ReadPump answers heartbeats until the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MsgTypePing {
			pong, _ := json.Marshal(&WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			c.trySend(pong)
		}
	}
}

// trySend queues data unless the client is already gone.
func (c *Client) trySend(data []byte) {
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if !c.Hub.clients[c] {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// WritePump writes one frame per queued message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
