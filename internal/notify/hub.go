// Package notify pushes video status events to the owner's open websocket
// connections.
package notify

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 32

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// NewClient returns a client with a buffered send channel. It is not
// registered until passed to Hub.Register.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{Hub: hub, Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

type message struct {
	userID  string
	payload []byte
}

// Hub tracks connected clients per user. All map access happens on the Run
// goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Register adds c to the hub. After the hub has stopped, c is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify queues event for every connection of userID. It never blocks; the
// event is dropped when the hub is backed up.
func (h *Hub) Notify(userID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to marshal event", zap.String("user_id", userID), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- message{userID: userID, payload: payload}:
	default:
		h.log.Warn("Notification dropped, hub is busy", zap.String("user_id", userID))
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, conns := range h.clients {
				for client := range conns {
					close(client.Send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			h.log.Debug("Websocket client registered", zap.String("user_id", client.UserID), zap.Int("connections", len(conns)))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.userID] {
				select {
				case client.Send <- msg.payload:
				default:
					h.log.Warn("Dropping slow websocket client", zap.String("user_id", client.UserID))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.Send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	h.log.Debug("Websocket client unregistered", zap.String("user_id", client.UserID))
}
