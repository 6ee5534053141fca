package kafka

import (
	"Ripple/internal/pkg/consts"
	"Ripple/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// ActionEvent 上游业务发出的动作事件
type ActionEvent struct {
	ReceiverID uint64 `json:"receiver_id"`
	ActorID    uint64 `json:"actor_id"`
	ActionType int8   `json:"action_type"`
	ObjectID   uint64 `json:"object_id"`
}

// ActionsHandler 消费动作事件并写入通知聚合
type ActionsHandler struct {
	notificationService service.NotificationService
}

func NewActionsHandler(notificationService service.NotificationService) *ActionsHandler {
	return &ActionsHandler{notificationService: notificationService}
}

func (s *ActionsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("actions consumer setup")
	return nil
}

func (s *ActionsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("actions consumer cleanup")
	return nil
}

func (s *ActionsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-actions consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-actions process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ActionsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event ActionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("unmarshal action event error", "err", err)
		// 畸形消息直接跳过，重试也不可能成功
		return nil
	}

	if event.ReceiverID == 0 || event.ActorID == 0 {
		return errors.New("action event missing receiver or actor")
	}
	if event.ActionType < consts.ActionTypeLike || event.ActionType > consts.ActionTypeFollow {
		log.Warn("unknown action type, skipped", "action_type", event.ActionType)
		return nil
	}

	// 自己触发的动作不产生通知
	if event.ReceiverID == event.ActorID {
		return nil
	}

	err := s.notificationService.Create(ctx, event.ReceiverID, event.ActorID, event.ActionType, event.ObjectID)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "action event processed",
		"receiver_id", event.ReceiverID,
		"actor_id", event.ActorID,
		"action_type", event.ActionType,
	)
	return nil
}
