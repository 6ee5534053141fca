package dto

// NotificationDTO 通知列表项：聚合记录补全动作者与对象预览
type NotificationDTO struct {
	ID             string `json:"id"`
	ActorID        uint64 `json:"actor_id"`
	ActorName      string `json:"actor_name"`
	ActorAvatarURL string `json:"actor_avatar_url"`
	ActorCount     int64  `json:"actor_count"` // 窗口内不同动作者数量
	ActionType     int8   `json:"action_type"`
	ObjectID       uint64 `json:"object_id"`
	Preview        string `json:"preview,omitempty"` // 对象内容片段
	CreatedAt      string `json:"created_at"`
}

// NotificationUnreadDTO 未读数返回
type NotificationUnreadDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// NotificationPushDTO 推送流事件
type NotificationPushDTO struct {
	ID         string        `json:"id"`
	ReceiverID uint64        `json:"receiverId"`
	Actor      *UserBriefDTO `json:"actor,omitempty"`
	ActionType int8          `json:"actionType"`
	ObjectID   uint64        `json:"objectId"`
}
