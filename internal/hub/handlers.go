package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/immxrtalbeast/skillsync/internal/domain"
	"github.com/immxrtalbeast/skillsync/internal/executor"
	"github.com/immxrtalbeast/skillsync/lib/logger/sl"
)

// relayedAs maps inbound signaling types to the event type the other room
// members receive.
var relayedAs = map[string]string{
	domain.EventOffer:        domain.EventReceiveOffer,
	domain.EventAnswer:       domain.EventReceiveAnswer,
	domain.EventICECandidate: domain.EventReceiveCandidate,
}

func (h *Hub) handleJoin(_ context.Context, client *domain.Client, event domain.Event) {
	if event.Room == "" {
		return
	}

	rm := h.rooms.GetOrCreate(event.Room)
	client.TrackRoom(event.Room)
	rm.Join(client)

	h.log.Info("client joined room",
		slog.String("client", client.ID),
		slog.String("room", event.Room),
	)
}

// handleSignal relays offer/answer/ice-candidate payloads untouched to the
// other members of the room. No members, no room: silently dropped — the
// peer may have disconnected mid-handshake.
func (h *Hub) handleSignal(_ context.Context, client *domain.Client, event domain.Event) {
	if event.Room == "" {
		return
	}
	rm, ok := h.rooms.Get(event.Room)
	if !ok {
		return
	}

	rm.Relay(client.ID, domain.Event{
		Type:    relayedAs[event.Type],
		Room:    event.Room,
		Payload: event.Payload,
	})
}

func (h *Hub) handleChatSend(_ context.Context, client *domain.Client, event domain.Event) {
	var payload domain.ChatSendPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.log.Debug("malformed chat payload", slog.String("client", client.ID), sl.Err(err))
		return
	}
	if event.Room == "" || payload.Message == "" {
		return
	}

	rm := h.rooms.GetOrCreate(event.Room)
	rm.AppendMessage(payload.User, payload.Message)
}

func (h *Hub) handleTyping(_ context.Context, client *domain.Client, event domain.Event) {
	var payload domain.TypingPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return
	}
	if event.Room == "" || payload.User == "" {
		return
	}
	rm, ok := h.rooms.Get(event.Room)
	if !ok {
		return
	}

	rm.Relay(client.ID, domain.Event{
		Type:    domain.EventTyping,
		Room:    event.Room,
		Payload: event.Payload,
	})
}

func (h *Hub) handleIdentify(_ context.Context, client *domain.Client, event domain.Event) {
	var payload domain.IdentifyPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return
	}
	if event.Room == "" || payload.Username == "" {
		return
	}

	rm := h.rooms.GetOrCreate(event.Room)
	rm.SetName(client.ID, payload.Username)
}

// handleEditorRelay forwards collaborative-editor events as-is. Last write
// wins; concurrent edits may overwrite each other at the application layer.
func (h *Hub) handleEditorRelay(_ context.Context, client *domain.Client, event domain.Event) {
	if event.Room == "" {
		return
	}
	rm, ok := h.rooms.Get(event.Room)
	if !ok {
		return
	}

	rm.Relay(client.ID, event)
}

// handleExecute forwards the submission to the execution service on its own
// goroutine, holding no room lock while the call is in flight. The result
// goes to the requester only; if the requester is gone by then it is
// discarded.
func (h *Hub) handleExecute(_ context.Context, client *domain.Client, event domain.Event) {
	var payload domain.ExecutePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.log.Debug("malformed execute payload", slog.String("client", client.ID), sl.Err(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.execTimeout)
		defer cancel()

		result := h.runner.Run(ctx, executor.Request{
			SourceCode: payload.SourceCode,
			LanguageID: payload.LanguageID,
			Stdin:      payload.Stdin,
		})

		out, err := domain.NewEvent(domain.EventExecutionResult, event.Room, result)
		if err != nil {
			h.log.Error("marshal execution result", sl.Err(err))
			return
		}
		client.EnqueueEvent(out)
	}()
}
