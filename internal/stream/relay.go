package stream

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/pkg/consts"
	"Ripple/internal/pkg/redis"
	"context"
	"log/slog"
	"strconv"

	"github.com/goccy/go-json"
)

// NotifyRelay 将推送流事件转发到 Redis 频道，供其他实例消费
type NotifyRelay struct {
	source *Broadcaster[*dto.NotificationPushDTO]
}

func NewNotifyRelay(source *Broadcaster[*dto.NotificationPushDTO]) *NotifyRelay {
	return &NotifyRelay{source: source}
}

func (s *NotifyRelay) Run(ctx context.Context) error {
	events, cancel := s.source.Subscribe(64)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				slog.Error("推送事件序列化失败", "error", err)
				continue
			}
			channel := consts.NotifyUserKey + strconv.FormatUint(event.ReceiverID, 10)
			if err := redis.Publish(ctx, channel, payload); err != nil {
				slog.Error("推送事件转发失败", "channel", channel, "error", err)
			}
		}
	}
}
