package job

import (
	"Ripple/internal/pkg/consts"
	mongoPkg "Ripple/internal/pkg/mongo"
	"Ripple/internal/pkg/redis"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const defaultRetentionDays = 90

// NotificationPruneJob 清理超过保留期的通知聚合记录
type NotificationPruneJob struct {
	notificationRepo mongoPkg.NotificationRepo
	retentionDays    int
}

func NewNotificationPruneJob(notificationRepo mongoPkg.NotificationRepo, retentionDays int) *NotificationPruneJob {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &NotificationPruneJob{
		notificationRepo: notificationRepo,
		retentionDays:    retentionDays,
	}
}

func (s *NotificationPruneJob) Run() {
	ctx := context.Background()
	log.Info("start notification prune job")

	// 分布式锁，多实例只跑一份
	lockValue := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.NotificationPruneLock, lockValue, 10*time.Minute, 1)
	if err != nil {
		log.Error("failed to acquire prune lock", "err", err)
		return
	}
	if !ok {
		log.Info("prune lock held by another instance, skipped")
		return
	}
	defer redis.UnLock(ctx, consts.NotificationPruneLock, lockValue)

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error("failed to prune notifications", "err", err)
		return
	}

	log.Info("notification prune job finished", "deleted_count", deleted, "cutoff", cutoff)
}
