package websocket

import "github.com/VJYGOUR/auth-system/internal/models"

// ActionAuthEvent tags a streamed audit event.
const ActionAuthEvent = "auth_event"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// NewEventMessage wraps an audit event for the stream.
func NewEventMessage(event models.Event) Message {
	return Message{Action: ActionAuthEvent, Payload: event}
}
