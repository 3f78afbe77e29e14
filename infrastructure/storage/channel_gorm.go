package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/pkg/apperror"
)

// GormChannelStore implements channel.Store.
type GormChannelStore struct {
	db *gorm.DB
}

func NewGormChannelStore(db *gorm.DB) *GormChannelStore {
	return &GormChannelStore{db: db}
}

func channelToRecord(ch *channel.Channel) ChannelRecord {
	return ChannelRecord{
		ID:          ch.ID,
		Name:        ch.Name,
		Provider:    ch.Provider,
		InstanceID:  ch.Credential.InstanceID,
		SecretToken: ch.Credential.SecretToken,
		AuthMode:    string(ch.Credential.AuthMode),
		ClientToken: ch.Credential.ClientToken,
		WebhookURL:  ch.WebhookURL,
		Enabled:     ch.Enabled,
	}
}

func recordToChannel(rec ChannelRecord) channel.Channel {
	return channel.Channel{
		ID:       rec.ID,
		Name:     rec.Name,
		Provider: rec.Provider,
		Credential: channel.Credential{
			InstanceID:  rec.InstanceID,
			SecretToken: rec.SecretToken,
			AuthMode:    channel.AuthMode(rec.AuthMode),
			ClientToken: rec.ClientToken,
		},
		WebhookURL: rec.WebhookURL,
		Enabled:    rec.Enabled,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func (s *GormChannelStore) Create(ctx context.Context, ch *channel.Channel) error {
	rec := channelToRecord(ch)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	ch.CreatedAt = rec.CreatedAt
	ch.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormChannelStore) Get(ctx context.Context, id string) (*channel.Channel, error) {
	var rec ChannelRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundError(fmt.Sprintf("channel %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	ch := recordToChannel(rec)
	return &ch, nil
}

func (s *GormChannelStore) List(ctx context.Context) ([]channel.Channel, error) {
	var records []ChannelRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make([]channel.Channel, 0, len(records))
	for _, rec := range records {
		out = append(out, recordToChannel(rec))
	}
	return out, nil
}

func (s *GormChannelStore) Update(ctx context.Context, ch *channel.Channel) error {
	rec := channelToRecord(ch)
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	return nil
}

func (s *GormChannelStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&ChannelRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete channel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFoundError(fmt.Sprintf("channel %s not found", id))
	}
	return nil
}
