package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/skillsync/internal/domain"
	"github.com/immxrtalbeast/skillsync/internal/executor"
	"github.com/immxrtalbeast/skillsync/internal/room"
	"github.com/immxrtalbeast/skillsync/pkg/metrics"
)

type handlerFunc func(ctx context.Context, client *domain.Client, event domain.Event)

// Hub is the connection registry and event dispatcher: it tracks every live
// client, routes typed events to their handlers, and tears a client's room
// memberships down exactly once on disconnect.
type Hub struct {
	log         *slog.Logger
	rooms       *room.Registry
	runner      executor.Runner
	metrics     *metrics.Metrics
	execTimeout time.Duration

	mu      sync.RWMutex
	clients map[string]*domain.Client

	handlers map[string]handlerFunc
}

func New(rooms *room.Registry, runner executor.Runner, m *metrics.Metrics, execTimeout time.Duration, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		log:         log,
		rooms:       rooms,
		runner:      runner,
		metrics:     m,
		execTimeout: execTimeout,
		clients:     make(map[string]*domain.Client),
	}

	h.handlers = map[string]handlerFunc{
		domain.EventJoinRoom:         h.handleJoin,
		domain.EventOffer:            h.handleSignal,
		domain.EventAnswer:           h.handleSignal,
		domain.EventICECandidate:     h.handleSignal,
		domain.EventChatSend:         h.handleChatSend,
		domain.EventTyping:           h.handleTyping,
		domain.EventPresenceIdentify: h.handleIdentify,
		domain.EventCodeChange:       h.handleEditorRelay,
		domain.EventStdinChange:      h.handleEditorRelay,
		domain.EventLanguageChange:   h.handleEditorRelay,
		domain.EventExecuteCode:      h.handleExecute,
	}

	return h
}

// OnConnect registers a fresh client for the given socket.
func (h *Hub) OnConnect(socket *websocket.Conn) *domain.Client {
	client := domain.NewClient(socket)

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Connections.Inc()
	}
	h.log.Debug("client connected", slog.String("client", client.ID))

	return client
}

// Dispatch routes one inbound event. Unknown types and malformed payloads
// are dropped without a reply; clients are expected to validate before
// sending.
func (h *Hub) Dispatch(ctx context.Context, client *domain.Client, event domain.Event) {
	if h.metrics != nil {
		h.metrics.Events.WithLabelValues(event.Type).Inc()
	}

	handler, ok := h.handlers[event.Type]
	if !ok {
		h.log.Debug("unknown event type",
			slog.String("client", client.ID),
			slog.String("type", event.Type),
		)
		return
	}
	handler(ctx, client, event)
}

// Disconnect removes the client from every room it joined and closes its
// event channel. Remaining members of each room receive a presence update.
// Cleanup runs exactly once; once teardown begins no further events reach
// the client.
func (h *Hub) Disconnect(client *domain.Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	h.mu.Unlock()

	client.CloseEvents()

	for _, roomID := range client.Rooms() {
		if rm, ok := h.rooms.Get(roomID); ok {
			rm.Leave(client.ID)
		}
	}

	if h.metrics != nil {
		h.metrics.Connections.Dec()
	}
	h.log.Debug("client disconnected", slog.String("client", client.ID))
}
