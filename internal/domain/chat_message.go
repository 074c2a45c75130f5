package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry of a room's ephemeral chat history. Immutable
// once created.
type ChatMessage struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Message string `json:"message"`
	Ts      int64  `json:"ts"`
}

// NewChatMessage stamps a message with a time-derived id. The uuid fragment
// keeps ids unique when two messages land on the same millisecond.
func NewChatMessage(user, message string) ChatMessage {
	if user == "" {
		user = "Anon"
	}
	now := time.Now()
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return ChatMessage{
		ID:      fmt.Sprintf("%d%s", now.UnixMilli(), suffix),
		User:    user,
		Message: message,
		Ts:      now.UnixMilli(),
	}
}
