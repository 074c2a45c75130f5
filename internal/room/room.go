package room

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/immxrtalbeast/skillsync/internal/domain"
	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

// Room holds the ephemeral per-room state: the live member set, the display
// names of identified members, and a bounded chat history. Every mutation
// runs under the room's own lock, so two rooms never contend with each
// other.
//
// Fan-out happens inside the lock as well. Enqueues are non-blocking, which
// keeps the critical sections short and makes each operation a single
// atomic step: a client that joins mid-append either sees the message in
// its history or receives the broadcast, never neither.
type Room struct {
	id     string
	log    *slog.Logger
	onDrop func()

	mu         sync.RWMutex
	members    map[string]*domain.Client
	names      map[string]string
	history    []domain.ChatMessage
	limit      int
	emptySince time.Time
}

func newRoom(id string, limit int, log *slog.Logger, onDrop func()) *Room {
	return &Room{
		id:         id,
		log:        log,
		onDrop:     onDrop,
		members:    make(map[string]*domain.Client),
		names:      make(map[string]string),
		limit:      limit,
		emptySince: time.Now(),
	}
}

func (r *Room) ID() string { return r.id }

// Join adds the client to the member set, hands it the current chat history
// (targeted, not broadcast) and announces the newcomer to everyone else.
// The history event is enqueued while the lock is held, so the client can
// never observe a chat broadcast that predates it.
func (r *Room) Join(c *domain.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[c.ID] = c
	r.emptySince = time.Time{}

	history := make([]domain.ChatMessage, len(r.history))
	copy(history, r.history)
	r.enqueue(c, domain.EventChatHistory, history)

	for id, member := range r.members {
		if id == c.ID {
			continue
		}
		r.enqueue(member, domain.EventUserJoined, c.ID)
	}
}

// Leave removes the client from the member set and presence mapping. If
// anyone remains, they receive the updated presence list. Idempotent.
func (r *Room) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return
	}
	delete(r.members, connID)
	delete(r.names, connID)

	if len(r.members) == 0 {
		r.emptySince = time.Now()
		return
	}

	users := r.presenceLocked()
	for _, member := range r.members {
		r.enqueue(member, domain.EventPresenceUpdate, users)
	}
}

// AppendMessage stores a chat message and broadcasts it to every member,
// sender included. Empty text is rejected silently; history is truncated to
// the most recent entries, oldest first out.
func (r *Room) AppendMessage(user, text string) (domain.ChatMessage, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := domain.NewChatMessage(user, text)
	r.history = append(r.history, msg)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}

	for _, member := range r.members {
		r.enqueue(member, domain.EventChatMessage, msg)
	}

	return msg, true
}

// History returns a copy of the current chat history, oldest first.
func (r *Room) History() []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ChatMessage, len(r.history))
	copy(out, r.history)
	return out
}

// SetName records the display name for a connection and broadcasts the full
// presence list to every member. Setting the same name twice is harmless.
func (r *Room) SetName(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names[connID] = name

	users := r.presenceLocked()
	for _, member := range r.members {
		r.enqueue(member, domain.EventPresenceUpdate, users)
	}
}

// Presence returns the display names of every identified member.
func (r *Room) Presence() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.presenceLocked()
}

// Relay re-emits an event to every member except the sender. Pure routing:
// the payload is not inspected. A room with no other members swallows the
// event; the peer may simply have disconnected mid-handshake.
func (r *Room) Relay(senderID string, event domain.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, member := range r.members {
		if id == senderID {
			continue
		}
		if !member.EnqueueEvent(event) {
			r.dropped()
			r.log.Debug("dropping relayed event",
				slog.String("room", r.id),
				slog.String("member", id),
				slog.String("type", event.Type),
			)
		}
	}
}

// MemberCount reports the number of live connections in the room.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// IdleSince returns the moment the room last became empty, or the zero time
// while it has members.
func (r *Room) IdleSince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emptySince
}

func (r *Room) presenceLocked() []string {
	users := make([]string, 0, len(r.names))
	for _, name := range r.names {
		users = append(users, name)
	}
	return users
}

func (r *Room) enqueue(c *domain.Client, eventType string, payload any) {
	event, err := domain.NewEvent(eventType, r.id, payload)
	if err != nil {
		r.log.Error("marshal outbound event", slog.String("type", eventType), sl.Err(err))
		return
	}
	if !c.EnqueueEvent(event) {
		r.dropped()
		r.log.Debug("dropping outbound event",
			slog.String("room", r.id),
			slog.String("member", c.ID),
			slog.String("type", eventType),
		)
	}
}

func (r *Room) dropped() {
	if r.onDrop != nil {
		r.onDrop()
	}
}
