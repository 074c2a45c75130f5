package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one live connection to the hub. A client may join any
// number of rooms over its lifetime; the joined set drives cleanup on
// disconnect.
type Client struct {
	ID          string
	Socket      *websocket.Conn
	Events      chan Event
	ConnectedAt time.Time

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func NewClient(socket *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.New().String(),
		Socket:      socket,
		Events:      make(chan Event, 32),
		ConnectedAt: time.Now().UTC(),
		rooms:       make(map[string]struct{}),
	}
}

// EnqueueEvent queues an outbound event without blocking. Events for a
// closed or saturated client are dropped; a slow member must not stall
// delivery to the rest of its room.
func (c *Client) EnqueueEvent(event Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}

// CloseEvents marks the client as torn down and closes its event channel.
// Safe to call more than once; only the first call has effect. After it
// returns no further events can be enqueued.
func (c *Client) CloseEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Events)
}

func (c *Client) TrackRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

// Rooms returns a snapshot of the room ids this client has joined.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}
