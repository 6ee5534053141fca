package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CursorRepo interface {
	Advance(ctx context.Context, userID uint64, seenAt time.Time) error
	Get(ctx context.Context, userID uint64) (time.Time, error)
}

type cursorRepoImpl struct {
	db *gorm.DB
}

func NewCursorRepo(db *gorm.DB) CursorRepo {
	return &cursorRepoImpl{db: db}
}

// Advance 前移未读游标，后退的写入同样生效（调用方保证单调）
func (s *cursorRepoImpl) Advance(ctx context.Context, userID uint64, seenAt time.Time) error {
	row := &model.NotificationCursor{
		UserID:     userID,
		LastSeenAt: seenAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": seenAt}),
	}).Create(row).Error
}

// Get 从未读过返回零值时间，使全部记录计为未读
func (s *cursorRepoImpl) Get(ctx context.Context, userID uint64) (time.Time, error) {
	var row model.NotificationCursor
	err := s.db.WithContext(ctx).First(&row, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return row.LastSeenAt, nil
}
