package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/model"
	"Ripple/internal/pkg/consts"
	mongoPkg "Ripple/internal/pkg/mongo"
	"Ripple/internal/repository"
	"Ripple/internal/stream"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

// notificationWindowTTL 聚合窗口时长，窗口过期后同一元组新开记录
const notificationWindowTTL = 5 * 24 * time.Hour

type NotificationService interface {
	Create(ctx context.Context, receiverID, actorID uint64, actionType int8, objectID uint64) error
	GetAll(ctx context.Context, receiverID uint64, page, pageSize int) ([]*dto.NotificationDTO, error)
	Count(ctx context.Context, receiverID uint64) (int64, error)
	UpdateLastSeen(ctx context.Context, receiverID uint64) error
	Stream() *stream.Broadcaster[*dto.NotificationPushDTO]
}

type notificationServiceImpl struct {
	notificationRepo mongoPkg.NotificationRepo
	cursorRepo       repository.CursorRepo
	userDir          repository.UserDirectory
	contentDir       repository.ContentDirectory
	pushStream       *stream.Broadcaster[*dto.NotificationPushDTO]
	keyLocks         sync.Map // 元组级互斥，读改写不被并发事件交错
}

func NewNotificationService(
	notificationRepo mongoPkg.NotificationRepo,
	cursorRepo repository.CursorRepo,
	userDir repository.UserDirectory,
	contentDir repository.ContentDirectory,
	pushStream *stream.Broadcaster[*dto.NotificationPushDTO],
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		cursorRepo:       cursorRepo,
		userDir:          userDir,
		contentDir:       contentDir,
		pushStream:       pushStream,
	}
}

func (s *notificationServiceImpl) Stream() *stream.Broadcaster[*dto.NotificationPushDTO] {
	return s.pushStream
}

func (s *notificationServiceImpl) lockTuple(receiverID uint64, actionType int8, objectID uint64) func() {
	key := fmt.Sprintf("%d:%d:%d", receiverID, actionType, objectID)
	v, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Create 聚合写入：
//   - 元组无记录或窗口已过期，新开一条记录，计数为 1
//   - 最近动作者重复触发，不改动任何字段
//   - 不同动作者触发，计数加一并刷新窗口时钟
//
// 记录发生变化时向推送流投递一条事件。
func (s *notificationServiceImpl) Create(ctx context.Context, receiverID, actorID uint64, actionType int8, objectID uint64) error {
	unlock := s.lockTuple(receiverID, actionType, objectID)
	defer unlock()

	now := time.Now()
	rec, err := s.notificationRepo.GetLatest(ctx, receiverID, actionType, objectID)
	if err != nil {
		slog.Error("查询聚合记录失败", "receiver_id", receiverID, "error", err)
		return UnExpectedError
	}

	if rec == nil || now.Sub(rec.CreatedAt) >= notificationWindowTTL {
		rec = &mongoPkg.NotificationModel{
			Key:        fmt.Sprintf("%d:%d:%d:%d", receiverID, actionType, objectID, now.Unix()),
			ReceiverID: receiverID,
			ActorID:    actorID,
			ActorCount: 1,
			ActionType: actionType,
			ObjectID:   objectID,
			CreatedAt:  now,
		}
		if err = s.notificationRepo.Insert(ctx, rec); err != nil {
			slog.Error("插入聚合记录失败", "receiver_id", receiverID, "error", err)
			return UnExpectedError
		}
		s.emit(ctx, rec)
		return nil
	}

	if rec.ActorID == actorID {
		return nil
	}

	if err = s.notificationRepo.RefreshWithActor(ctx, rec.ID, actorID, now); err != nil {
		slog.Error("刷新聚合记录失败", "receiver_id", receiverID, "error", err)
		return UnExpectedError
	}
	rec.ActorID = actorID
	rec.ActorCount++
	rec.CreatedAt = now
	s.emit(ctx, rec)
	return nil
}

// emit 向推送流投递事件，只有当前在线的订阅者会收到
func (s *notificationServiceImpl) emit(ctx context.Context, rec *mongoPkg.NotificationModel) {
	event := &dto.NotificationPushDTO{
		ID:         rec.ID.Hex(),
		ReceiverID: rec.ReceiverID,
		ActionType: rec.ActionType,
		ObjectID:   rec.ObjectID,
	}
	if actor, err := s.userDir.GetUserById(ctx, rec.ActorID); err == nil {
		event.Actor = &dto.UserBriefDTO{
			ID:        actor.ID,
			Username:  actor.Username,
			Nickname:  actor.Nickname,
			AvatarURL: actor.AvatarURL,
		}
	}
	s.pushStream.Publish(event)
}

// GetAll 分页获取通知列表，补全动作者信息与对象预览
func (s *notificationServiceImpl) GetAll(ctx context.Context, receiverID uint64, page, pageSize int) ([]*dto.NotificationDTO, error) {
	offset := int64((page - 1) * pageSize)
	records, err := s.notificationRepo.ListByReceiver(ctx, receiverID, int64(pageSize), offset)
	if err != nil {
		slog.Error("查询通知列表失败", "receiver_id", receiverID, "error", err)
		return nil, UnExpectedError
	}

	actorIDs := make([]uint64, 0, len(records))
	for _, rec := range records {
		actorIDs = append(actorIDs, rec.ActorID)
	}
	actors, err := s.userDir.GetUsersByIds(ctx, actorIDs)
	if err != nil {
		actors = map[uint64]*model.User{}
	}

	res := make([]*dto.NotificationDTO, 0, len(records))
	for _, rec := range records {
		item := &dto.NotificationDTO{}
		if err = copier.Copy(item, rec); err != nil {
			slog.Error("通知记录转换失败", "error", err)
			continue
		}
		item.ID = rec.ID.Hex()
		item.CreatedAt = rec.CreatedAt.Format(time.DateTime)
		if actor, ok := actors[rec.ActorID]; ok {
			item.ActorName = displayName(actor)
			item.ActorAvatarURL = actor.AvatarURL
		}
		if hasContentPreview(rec.ActionType) {
			if preview, previewErr := s.contentDir.GetPreview(ctx, rec.ObjectID); previewErr == nil {
				item.Preview = preview
			}
		}
		res = append(res, item)
	}
	return res, nil
}

// Count 未读数：游标之后刷新过的聚合记录条数
func (s *notificationServiceImpl) Count(ctx context.Context, receiverID uint64) (int64, error) {
	cursor, err := s.cursorRepo.Get(ctx, receiverID)
	if err != nil {
		slog.Error("查询未读游标失败", "receiver_id", receiverID, "error", err)
		return 0, UnExpectedError
	}
	count, err := s.notificationRepo.CountSince(ctx, receiverID, cursor)
	if err != nil {
		slog.Error("统计未读通知失败", "receiver_id", receiverID, "error", err)
		return 0, UnExpectedError
	}
	return count, nil
}

// UpdateLastSeen 前移未读游标到当前时间
func (s *notificationServiceImpl) UpdateLastSeen(ctx context.Context, receiverID uint64) error {
	if err := s.cursorRepo.Advance(ctx, receiverID, time.Now()); err != nil {
		slog.Error("更新未读游标失败", "receiver_id", receiverID, "error", err)
		return UnExpectedError
	}
	return nil
}

// hasContentPreview 指向帖子的动作类型才带内容预览
func hasContentPreview(actionType int8) bool {
	switch actionType {
	case consts.ActionTypeLike, consts.ActionTypeCollect, consts.ActionTypeComment:
		return true
	}
	return false
}
