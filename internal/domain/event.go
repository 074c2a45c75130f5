package domain

import "encoding/json"

// Event is the envelope for every message exchanged with the hub. Payload
// stays raw so signaling traffic is relayed verbatim; each handler decodes
// only the payload shapes it owns.
type Event struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> hub event types.
const (
	EventJoinRoom         = "join_room"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventChatSend         = "chat_send"
	EventTyping           = "typing"
	EventPresenceIdentify = "presence_identify"
	EventCodeChange       = "code_change"
	EventStdinChange      = "stdin_change"
	EventLanguageChange   = "language_change"
	EventExecuteCode      = "execute_code_event"
)

// Hub -> client event types.
const (
	EventUserJoined       = "user_joined"
	EventChatHistory      = "chat_history"
	EventReceiveOffer     = "receive_offer"
	EventReceiveAnswer    = "receive-answer"
	EventReceiveCandidate = "receive-candidate"
	EventChatMessage      = "chat_message"
	EventPresenceUpdate   = "presence_update"
	EventExecutionResult  = "executionResult"
)

type ChatSendPayload struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

type TypingPayload struct {
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

type IdentifyPayload struct {
	Username string `json:"username"`
}

type ExecutePayload struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

// NewEvent marshals payload into an envelope of the given type.
func NewEvent(eventType, room string, payload any) (Event, error) {
	event := Event{Type: eventType, Room: room}
	if payload == nil {
		return event, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	event.Payload = raw

	return event, nil
}
