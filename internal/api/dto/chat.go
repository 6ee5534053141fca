package dto

import "time"

// CreateChannelReq 创建频道请求体
type CreateChannelReq struct {
	TargetUserID uint64 `json:"targetId" binding:"required"`
}

// ChannelDTO 频道响应
type ChannelDTO struct {
	ID             uint64        `json:"id"`
	FirstUserID    uint64        `json:"first_user_id"`
	SecondUserID   uint64        `json:"second_user_id"`
	Peer           *UserBriefDTO `json:"peer,omitempty"`           // 对手方展示信息 (请求者视角)
	PeerLastSeenAt *time.Time    `json:"peer_last_seen,omitempty"` // 对手方最后在场时间
	CreatedAt      time.Time     `json:"created_at"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID              uint64    `json:"id"`
	ChannelID       uint64    `json:"channel_id"`
	SenderID        uint64    `json:"sender_id"`
	SenderName      string    `json:"sender_name,omitempty"`
	SenderAvatarURL string    `json:"sender_avatar_url,omitempty"`
	Content         string    `json:"content"`
	SentAt          time.Time `json:"sent_at"`
}
