package message

import (
	"context"
	"time"
)

// MediaKind enumerates the inbound media payload types the normalizer
// recognizes. "ptt" is a WhatsApp voice note (push-to-talk).
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
	MediaSticker  MediaKind = "sticker"
	MediaPTT      MediaKind = "ptt"
)

// Inbound is the canonical message record produced by the webhook
// normalizer. PhoneDigitsOnly holds ASCII digits exclusively, and
// IsMediaMessage is true iff MediaKind is set. The value is handed to the
// store immediately after creation and never mutated afterwards.
type Inbound struct {
	PhoneDigitsOnly   string    `json:"phone"`
	TextContent       string    `json:"text"`
	ExternalMessageID string    `json:"external_message_id"`
	SenderDisplayName string    `json:"sender_display_name,omitempty"`
	Timestamp         time.Time `json:"timestamp"`

	IsMediaMessage  bool      `json:"is_media_message"`
	MediaKind       MediaKind `json:"media_kind,omitempty"`
	MediaURL        string    `json:"media_url,omitempty"`
	FileName        string    `json:"file_name,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`

	IsQuotedReply     bool   `json:"is_quoted_reply"`
	QuotedMessageID   string `json:"quoted_message_id,omitempty"`
	QuotedMessageText string `json:"quoted_message_text,omitempty"`
}

// Stored is what the persistence collaborator returns after ingesting an
// inbound message.
type Stored struct {
	ID             string    `json:"id"`
	ChannelID      string    `json:"channel_id"`
	ConversationID string    `json:"conversation_id"`
	Inbound        Inbound   `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationContext carries the routing facts the store needs alongside
// the normalized message.
type ConversationContext struct {
	ChannelID string
	Provider  string
}

// Store is the persistence collaborator for inbound messages.
type Store interface {
	PersistInbound(ctx context.Context, msg Inbound, conv ConversationContext) (*Stored, error)
	History(ctx context.Context, channelID, phone string, limit int) ([]Stored, error)
}
