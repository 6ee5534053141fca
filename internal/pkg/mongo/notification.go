package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationModel 滚动聚合的通知记录
// 同一 (receiver, action, object) 在窗口期内只存在一条开放记录，
// 不同动作者触发时累加 actor_count 并刷新 created_at。
type NotificationModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key        string             `bson:"key" json:"key"`                // receiver:action:object:windowStart
	ReceiverID uint64             `bson:"receiver_id" json:"receiverId"` // 通知接收者
	ActorID    uint64             `bson:"actor_id" json:"actorId"`       // 最近一次触发的动作者
	ActorCount int64              `bson:"actor_count" json:"actorCount"` // 窗口内不同动作者数量
	ActionType int8               `bson:"action_type" json:"actionType"` // 动作类型，见 consts
	ObjectID   uint64             `bson:"object_id" json:"objectId"`     // 关联目标 (帖子/评论/用户)
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`   // 最近刷新时间，同时是窗口时钟
}
