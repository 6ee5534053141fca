package model

import "time"

// ChatChannel 单聊频道主表，两名成员之间最多存在一个频道
type ChatChannel struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstUserID  uint64    `gorm:"not null;index" json:"firstUserId"`
	SecondUserID uint64    `gorm:"not null;index" json:"secondUserId"`
	PairKey      string    `gorm:"uniqueIndex;type:varchar(64)" json:"pairKey"` // uid1_uid2 (小号在前)
	CreatedAt    time.Time `json:"createdAt"`
}

func (ChatChannel) TableName() string { return "chat_channels" }

// ChatMessage 消息明细，与频道同库同事务，随频道级联删除
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID uint64    `gorm:"not null;index:idx_channel_sent,priority:1" json:"channelId"`
	SenderID  uint64    `gorm:"not null" json:"senderId"`
	Content   string    `gorm:"type:varchar(2048);not null" json:"content"`
	SentAt    time.Time `gorm:"type:datetime(6);index:idx_channel_sent,priority:2" json:"sentAt"` // 分页排序键
}

func (ChatMessage) TableName() string { return "chat_messages" }

// ChannelLastSeen 成员在频道内的最后在场时间，加入房间时刷新
type ChannelLastSeen struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID  uint64    `gorm:"uniqueIndex:idx_channel_user" json:"channelId"`
	UserID     uint64    `gorm:"uniqueIndex:idx_channel_user" json:"userId"`
	LastSeenAt time.Time `gorm:"type:datetime(6)" json:"lastSeenAt"`
}

func (ChannelLastSeen) TableName() string { return "channel_last_seen" }
