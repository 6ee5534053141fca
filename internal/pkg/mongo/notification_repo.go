package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepo interface {
	Insert(ctx context.Context, rec *NotificationModel) error
	GetLatest(ctx context.Context, receiverID uint64, actionType int8, objectID uint64) (*NotificationModel, error)
	RefreshWithActor(ctx context.Context, id primitive.ObjectID, actorID uint64, now time.Time) error
	ListByReceiver(ctx context.Context, receiverID uint64, limit, offset int64) ([]*NotificationModel, error)
	CountSince(ctx context.Context, receiverID uint64, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection("notifications"),
	}
}

// EnsureIndexes 窗口键唯一索引兜底并发插入，接收者时间线索引服务分页
func (s *notificationRepoImpl) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

// Insert 插入新的聚合窗口记录
func (s *notificationRepoImpl) Insert(ctx context.Context, rec *NotificationModel) error {
	res, err := s.col.InsertOne(ctx, rec)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}
	return nil
}

// GetLatest 取该元组最近的一条记录，不存在返回 nil
func (s *notificationRepoImpl) GetLatest(ctx context.Context, receiverID uint64, actionType int8, objectID uint64) (*NotificationModel, error) {
	filter := bson.M{
		"receiver_id": receiverID,
		"action_type": actionType,
		"object_id":   objectID,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var rec NotificationModel
	err := s.col.FindOne(ctx, filter, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// RefreshWithActor 条件更新：仅当最近动作者不同才累加计数并刷新窗口时钟
func (s *notificationRepoImpl) RefreshWithActor(ctx context.Context, id primitive.ObjectID, actorID uint64, now time.Time) error {
	filter := bson.M{"_id": id, "actor_id": bson.M{"$ne": actorID}}
	update := bson.M{
		"$inc": bson.M{"actor_count": 1},
		"$set": bson.M{"actor_id": actorID, "created_at": now},
	}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}

// ListByReceiver 按刷新时间倒序分页
func (s *notificationRepoImpl) ListByReceiver(ctx context.Context, receiverID uint64, limit, offset int64) ([]*NotificationModel, error) {
	filter := bson.M{"receiver_id": receiverID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*NotificationModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CountSince 统计游标之后刷新过的记录数
func (s *notificationRepoImpl) CountSince(ctx context.Context, receiverID uint64, since time.Time) (int64, error) {
	filter := bson.M{
		"receiver_id": receiverID,
		"created_at":  bson.M{"$gt": since},
	}
	return s.col.CountDocuments(ctx, filter)
}

// DeleteOlderThan 保留期清理，返回删除条数
func (s *notificationRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
