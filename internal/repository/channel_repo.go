package repository

import (
	"Ripple/internal/model"
	"context"

	"gorm.io/gorm"
)

type ChannelRepo interface {
	CreateChannel(ctx context.Context, ch *model.ChatChannel) error
	GetChannel(ctx context.Context, channelID uint64) (*model.ChatChannel, error)
	GetChannelByPairKey(ctx context.Context, pairKey string) (*model.ChatChannel, error)
	IsParticipant(ctx context.Context, channelID uint64, userID uint64) (bool, error)
	ListUserChannels(ctx context.Context, userID uint64, offset, limit int) ([]*model.ChatChannel, error)
	DeleteChannelCascade(ctx context.Context, channelID uint64) error
}

type channelRepoImpl struct {
	db *gorm.DB
}

func NewChannelRepo(db *gorm.DB) ChannelRepo {
	return &channelRepoImpl{db: db}
}

// CreateChannel 插入频道，pair_key 唯一索引兜底防止成对重复
func (s *channelRepoImpl) CreateChannel(ctx context.Context, ch *model.ChatChannel) error {
	return s.db.WithContext(ctx).Create(ch).Error
}

// GetChannel 根据频道 ID 获取频道
func (s *channelRepoImpl) GetChannel(ctx context.Context, channelID uint64) (*model.ChatChannel, error) {
	var ch model.ChatChannel
	err := s.db.WithContext(ctx).First(&ch, channelID).Error
	return &ch, err
}

// GetChannelByPairKey 根据归一化成员对标识获取频道
func (s *channelRepoImpl) GetChannelByPairKey(ctx context.Context, pairKey string) (*model.ChatChannel, error) {
	var ch model.ChatChannel
	err := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&ch).Error
	return &ch, err
}

// IsParticipant 检查用户是否是频道成员
func (s *channelRepoImpl) IsParticipant(ctx context.Context, channelID uint64, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ChatChannel{}).
		Where("id = ? AND (first_user_id = ? OR second_user_id = ?)", channelID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListUserChannels 分页获取用户参与的频道列表
func (s *channelRepoImpl) ListUserChannels(ctx context.Context, userID uint64, offset, limit int) ([]*model.ChatChannel, error) {
	var list []*model.ChatChannel
	err := s.db.WithContext(ctx).
		Where("first_user_id = ? OR second_user_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

// DeleteChannelCascade 在单个事务内级联删除频道、消息与在场记录
func (s *channelRepoImpl) DeleteChannelCascade(ctx context.Context, channelID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", channelID).Delete(&model.ChannelLastSeen{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.ChatChannel{}, channelID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
