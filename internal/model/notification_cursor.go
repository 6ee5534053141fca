package model

import "time"

// NotificationCursor 通知未读游标，仅在用户拉取第一页时前移
type NotificationCursor struct {
	UserID     uint64    `gorm:"primaryKey" json:"userId"`
	LastSeenAt time.Time `gorm:"type:datetime(6)" json:"lastSeenAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (NotificationCursor) TableName() string { return "notification_cursors" }
