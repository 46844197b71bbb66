// Package live pushes committed draw changes to websocket subscribers of a category.
package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
	publishBuffer  = 256
)

// MessageSubscribed is sent to a client once it is registered in its category room.
const MessageSubscribed = "subscribed"

// Message is the JSON frame written to subscribers.
type Message struct {
	Type       string         `json:"type"`
	CategoryID int64          `json:"categoryId"`
	Matches    []models.Match `json:"matches,omitempty"`
}

type roomMessage struct {
	categoryID int64
	payload    []byte
}

// Hub fans service events out to the clients watching each category. All room state
// is owned by the goroutine running Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	done       chan struct{}
	rooms      map[int64]map[*Client]bool
}

var _ competition.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, publishBuffer),
		done:       make(chan struct{}),
		rooms:      make(map[int64]map[*Client]bool),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	logger := log.Ctx(ctx)
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[int64]map[*Client]bool)
			return

		case client := <-h.register:
			room, ok := h.rooms[client.categoryID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.categoryID] = room
			}
			room[client] = true
			logger.Debug().Int64("category_id", client.categoryID).Int("clients", len(room)).Msg("Live client registered")

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.rooms[message.categoryID] {
				select {
				case client.send <- message.payload:
				default:
					logger.Warn().Int64("category_id", message.categoryID).Msg("Dropping slow live client")
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.categoryID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.categoryID)
	}
}

// Publish queues event for the category's room. It never blocks the caller; events are
// dropped when the hub is saturated.
func (h *Hub) Publish(event competition.Event) {
	payload, err := json.Marshal(Message{
		Type:       string(event.Type),
		CategoryID: event.CategoryID,
		Matches:    event.Matches,
	})
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to encode live event")
		return
	}
	select {
	case h.broadcast <- roomMessage{categoryID: event.CategoryID, payload: payload}:
	default:
		log.Warn().Int64("category_id", event.CategoryID).Str("type", string(event.Type)).Msg("Live hub saturated, dropping event")
	}
}

// Client is one websocket subscriber of a category.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	categoryID int64
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Int64("category_id", c.categoryID).Msg("Live client closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
