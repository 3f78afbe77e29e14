package storage

import "time"

// ChannelRecord is the persisted form of a configured channel plus its
// provider credentials.
type ChannelRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Provider    string `gorm:"index"`
	InstanceID  string
	SecretToken string
	AuthMode    string
	ClientToken string
	WebhookURL  string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ChannelRecord) TableName() string { return "channels" }

// MessageRecord is one ingested inbound message. ConversationID is derived
// from (channel, phone) so client-side history queries stay cheap.
type MessageRecord struct {
	ID                string `gorm:"primaryKey"`
	ChannelID         string `gorm:"index:idx_messages_conversation"`
	ConversationID    string `gorm:"index"`
	Phone             string `gorm:"index:idx_messages_conversation"`
	Text              string
	ExternalMessageID string `gorm:"index"`
	SenderDisplayName string
	Timestamp         time.Time
	IsMedia           bool
	MediaKind         string
	MediaURL          string
	FileName          string
	ThumbnailURL      string
	DurationSeconds   int
	IsQuotedReply     bool
	QuotedMessageID   string
	QuotedMessageText string
	CreatedAt         time.Time
}

func (MessageRecord) TableName() string { return "messages" }

// PresenceRecord mirrors the hub's in-memory agent presence, best effort.
type PresenceRecord struct {
	UserID    int64 `gorm:"primaryKey"`
	Online    bool
	LastSeen  time.Time
	UpdatedAt time.Time
}

func (PresenceRecord) TableName() string { return "agent_presence" }
