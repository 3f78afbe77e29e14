package realtime

import (
	"context"
	"time"
)

// Server to client event types.
const (
	EventWelcome            = "welcome"
	EventAuthSuccess        = "authentication_success"
	EventAuthError          = "authentication_error"
	EventNewMessage         = "new_message"
	EventConversationStatus = "conversation_status"
	EventTypingStatus       = "typing_status"
	EventUserStatus         = "user_status"
	EventConnectionStats    = "connection_stats"
	EventNotification       = "notification"
	EventPong               = "pong"
)

// Client to server frame types.
const (
	FrameAuthenticate       = "authenticate"
	FramePing               = "ping"
	FrameConversationOpened = "conversation_opened"
	FrameConversationClosed = "conversation_closed"
	FrameTypingStatus       = "typing_status"
	FrameNotification       = "notification"
)

// Event is one JSON frame on the agent socket, either direction.
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UnixMilli()}
}

// Broadcaster is the surface the message pipeline needs from the fan-out
// hub, kept as an interface so application code does not depend on the
// websocket transport.
type Broadcaster interface {
	Broadcast(evt Event)
	SendTo(userID int64, evt Event) bool
	ActiveCount() int
	IsOnline(userID int64) bool
}

// PresenceStore mirrors agent online state to storage. Writes are
// fire-and-forget from the hub's point of view; failures are logged, never
// propagated to the socket.
type PresenceStore interface {
	SetPresence(ctx context.Context, userID int64, online bool) error
}
