package repository

import (
	"Ripple/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	GetMessage(ctx context.Context, messageID uint64) (*model.ChatMessage, error)
	ListBefore(ctx context.Context, channelID uint64, before time.Time, limit int) ([]*model.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID uint64) error
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// CreateMessage 持久化消息
func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// GetMessage 根据消息 ID 获取消息
func (s *messageRepoImpl) GetMessage(ctx context.Context, messageID uint64) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := s.db.WithContext(ctx).First(&msg, messageID).Error
	return &msg, err
}

// ListBefore 键集分页：严格早于 before 的消息，按 sent_at 倒序
func (s *messageRepoImpl) ListBefore(ctx context.Context, channelID uint64, before time.Time, limit int) ([]*model.ChatMessage, error) {
	var list []*model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND sent_at < ?", channelID, before).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// DeleteMessage 硬删除，无墓碑
func (s *messageRepoImpl) DeleteMessage(ctx context.Context, messageID uint64) error {
	res := s.db.WithContext(ctx).Delete(&model.ChatMessage{}, messageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
