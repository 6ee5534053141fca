package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PresenceRepo interface {
	Touch(ctx context.Context, channelID, userID uint64, seenAt time.Time) error
	LastSeen(ctx context.Context, channelID, userID uint64) (*time.Time, error)
}

type presenceRepoImpl struct {
	db *gorm.DB
}

func NewPresenceRepo(db *gorm.DB) PresenceRepo {
	return &presenceRepoImpl{db: db}
}

// Touch 按 (channel_id, user_id) 幂等 upsert，最后写入者胜出
func (s *presenceRepoImpl) Touch(ctx context.Context, channelID, userID uint64, seenAt time.Time) error {
	row := &model.ChannelLastSeen{
		ChannelID:  channelID,
		UserID:     userID,
		LastSeenAt: seenAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": seenAt}),
	}).Create(row).Error
}

// LastSeen 从未加入过返回 nil
func (s *presenceRepoImpl) LastSeen(ctx context.Context, channelID, userID uint64) (*time.Time, error) {
	var row model.ChannelLastSeen
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row.LastSeenAt, nil
}
