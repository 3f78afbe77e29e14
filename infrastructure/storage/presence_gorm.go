package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPresenceStore implements realtime.PresenceStore. Writes are upserts;
// the hub only ever needs the latest state per agent.
type GormPresenceStore struct {
	db *gorm.DB
}

func NewGormPresenceStore(db *gorm.DB) *GormPresenceStore {
	return &GormPresenceStore{db: db}
}

func (s *GormPresenceStore) SetPresence(ctx context.Context, userID int64, online bool) error {
	rec := PresenceRecord{
		UserID:   userID,
		Online:   online,
		LastSeen: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"online", "last_seen", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("persist presence for user %d: %w", userID, err)
	}
	return nil
}
