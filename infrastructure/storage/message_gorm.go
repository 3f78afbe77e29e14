package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/convodesk/convodesk/domains/message"
)

// GormMessageStore implements message.Store on the shared gorm handle.
type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

func conversationID(channelID, phone string) string {
	return fmt.Sprintf("%s:%s", channelID, phone)
}

func (s *GormMessageStore) PersistInbound(ctx context.Context, msg message.Inbound, conv message.ConversationContext) (*message.Stored, error) {
	rec := MessageRecord{
		ID:                uuid.NewString(),
		ChannelID:         conv.ChannelID,
		ConversationID:    conversationID(conv.ChannelID, msg.PhoneDigitsOnly),
		Phone:             msg.PhoneDigitsOnly,
		Text:              msg.TextContent,
		ExternalMessageID: msg.ExternalMessageID,
		SenderDisplayName: msg.SenderDisplayName,
		Timestamp:         msg.Timestamp,
		IsMedia:           msg.IsMediaMessage,
		MediaKind:         string(msg.MediaKind),
		MediaURL:          msg.MediaURL,
		FileName:          msg.FileName,
		ThumbnailURL:      msg.ThumbnailURL,
		DurationSeconds:   msg.DurationSeconds,
		IsQuotedReply:     msg.IsQuotedReply,
		QuotedMessageID:   msg.QuotedMessageID,
		QuotedMessageText: msg.QuotedMessageText,
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("persist inbound message: %w", err)
	}

	return &message.Stored{
		ID:             rec.ID,
		ChannelID:      rec.ChannelID,
		ConversationID: rec.ConversationID,
		Inbound:        msg,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

func (s *GormMessageStore) History(ctx context.Context, channelID, phone string, limit int) ([]message.Stored, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []MessageRecord
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND phone = ?", channelID, phone).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	out := make([]message.Stored, 0, len(records))
	for _, rec := range records {
		out = append(out, message.Stored{
			ID:             rec.ID,
			ChannelID:      rec.ChannelID,
			ConversationID: rec.ConversationID,
			CreatedAt:      rec.CreatedAt,
			Inbound: message.Inbound{
				PhoneDigitsOnly:   rec.Phone,
				TextContent:       rec.Text,
				ExternalMessageID: rec.ExternalMessageID,
				SenderDisplayName: rec.SenderDisplayName,
				Timestamp:         rec.Timestamp,
				IsMediaMessage:    rec.IsMedia,
				MediaKind:         message.MediaKind(rec.MediaKind),
				MediaURL:          rec.MediaURL,
				FileName:          rec.FileName,
				ThumbnailURL:      rec.ThumbnailURL,
				DurationSeconds:   rec.DurationSeconds,
				IsQuotedReply:     rec.IsQuotedReply,
				QuotedMessageID:   rec.QuotedMessageID,
				QuotedMessageText: rec.QuotedMessageText,
			},
		})
	}
	return out, nil
}
