package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/model"
	"Ripple/internal/pkg/consts"
	mongoPkg "Ripple/internal/pkg/mongo"
	"Ripple/internal/stream"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNotificationRepo struct {
	records []*mongoPkg.NotificationModel
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (s *fakeNotificationRepo) Insert(_ context.Context, rec *mongoPkg.NotificationModel) error {
	rec.ID = primitive.NewObjectID()
	clone := *rec
	s.records = append(s.records, &clone)
	return nil
}

func (s *fakeNotificationRepo) GetLatest(_ context.Context, receiverID uint64, actionType int8, objectID uint64) (*mongoPkg.NotificationModel, error) {
	var latest *mongoPkg.NotificationModel
	for _, rec := range s.records {
		if rec.ReceiverID != receiverID || rec.ActionType != actionType || rec.ObjectID != objectID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *fakeNotificationRepo) RefreshWithActor(_ context.Context, id primitive.ObjectID, actorID uint64, now time.Time) error {
	for _, rec := range s.records {
		if rec.ID == id && rec.ActorID != actorID {
			rec.ActorID = actorID
			rec.ActorCount++
			rec.CreatedAt = now
		}
	}
	return nil
}

func (s *fakeNotificationRepo) ListByReceiver(_ context.Context, receiverID uint64, limit, offset int64) ([]*mongoPkg.NotificationModel, error) {
	var list []*mongoPkg.NotificationModel
	for _, rec := range s.records {
		if rec.ReceiverID == receiverID {
			clone := *rec
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if offset >= int64(len(list)) {
		return nil, nil
	}
	list = list[offset:]
	if int64(len(list)) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *fakeNotificationRepo) CountSince(_ context.Context, receiverID uint64, since time.Time) (int64, error) {
	var count int64
	for _, rec := range s.records {
		if rec.ReceiverID == receiverID && rec.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*mongoPkg.NotificationModel
	var deleted int64
	for _, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

func (s *fakeNotificationRepo) EnsureIndexes(_ context.Context) error { return nil }

type fakeCursorRepo struct {
	cursors map[uint64]time.Time
}

func newFakeCursorRepo() *fakeCursorRepo {
	return &fakeCursorRepo{cursors: make(map[uint64]time.Time)}
}

func (s *fakeCursorRepo) Advance(_ context.Context, userID uint64, seenAt time.Time) error {
	s.cursors[userID] = seenAt
	return nil
}

func (s *fakeCursorRepo) Get(_ context.Context, userID uint64) (time.Time, error) {
	return s.cursors[userID], nil
}

type fakeContentDirectory struct {
	previews map[uint64]string
}

func (s *fakeContentDirectory) GetPreview(_ context.Context, objectID uint64) (string, error) {
	return s.previews[objectID], nil
}

func newNotificationServiceForTest() (NotificationService, *fakeNotificationRepo, *fakeCursorRepo) {
	notificationRepo := newFakeNotificationRepo()
	cursorRepo := newFakeCursorRepo()
	userDir := newFakeUserDirectory(
		&model.User{ID: 1, Username: "alice", Nickname: "Alice"},
		&model.User{ID: 2, Username: "bob"},
		&model.User{ID: 3, Username: "carol"},
	)
	contentDir := &fakeContentDirectory{previews: map[uint64]string{100: "帖子标题"}}
	pushStream := stream.NewBroadcaster[*dto.NotificationPushDTO]()
	svc := NewNotificationService(notificationRepo, cursorRepo, userDir, contentDir, pushStream)
	return svc, notificationRepo, cursorRepo
}

func TestNotificationCreateFirstEvent(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	err := svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100)
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, uint64(1), rec.ReceiverID)
	assert.Equal(t, uint64(2), rec.ActorID)
	assert.Equal(t, int64(1), rec.ActorCount)
}

func TestNotificationCreateSameActorNoop(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	before := repo.records[0].CreatedAt

	// 同一最近动作者重复触发，不改动任何字段
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	require.Len(t, repo.records, 1)
	assert.Equal(t, int64(1), repo.records[0].ActorCount)
	assert.Equal(t, before, repo.records[0].CreatedAt)
}

func TestNotificationCreateDistinctActorIncrements(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	require.NoError(t, svc.Create(ctx, 1, 3, consts.ActionTypeLike, 100))

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, int64(2), rec.ActorCount)
	assert.Equal(t, uint64(3), rec.ActorID)
}

func TestNotificationCreateAlternatingActors(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	// 2 → 3 → 2：最近动作者每次都不同，计数按次累加
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	require.NoError(t, svc.Create(ctx, 1, 3, consts.ActionTypeLike, 100))
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	require.Len(t, repo.records, 1)
	assert.Equal(t, int64(3), repo.records[0].ActorCount)
	assert.Equal(t, uint64(2), repo.records[0].ActorID)
}

func TestNotificationWindowExpiryOpensNewRecord(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	// 人为把窗口时钟拨回 6 天前，超过 5 天窗口
	repo.records[0].CreatedAt = time.Now().Add(-6 * 24 * time.Hour)

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	require.Len(t, repo.records, 2)
	assert.Equal(t, int64(1), repo.records[0].ActorCount)
	assert.Equal(t, int64(1), repo.records[1].ActorCount)
}

func TestNotificationTuplesIsolated(t *testing.T) {
	svc, repo, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeComment, 100))
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 200))

	assert.Len(t, repo.records, 3)
}

func TestNotificationPushEmitted(t *testing.T) {
	svc, _, _ := newNotificationServiceForTest()
	ctx := context.Background()

	events, cancel := svc.Stream().Subscribe(8)
	defer cancel()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	select {
	case event := <-events:
		assert.Equal(t, uint64(1), event.ReceiverID)
		assert.Equal(t, consts.ActionTypeLike, event.ActionType)
		require.NotNil(t, event.Actor)
		assert.Equal(t, uint64(2), event.Actor.ID)
	case <-time.After(time.Second):
		t.Fatal("no push event received")
	}

	// 同一动作者重复触发不产生推送
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	select {
	case <-events:
		t.Fatal("unexpected push event for no-op create")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationGetAllEnrichment(t *testing.T) {
	svc, _, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	list, err := svc.GetAll(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].ActorName)
	assert.Equal(t, "帖子标题", list[0].Preview)
	assert.Equal(t, int64(1), list[0].ActorCount)
}

func TestNotificationFollowHasNoPreview(t *testing.T) {
	svc, _, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeFollow, 2))

	list, err := svc.GetAll(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Preview)
}

func TestNotificationUnreadCountAndCursor(t *testing.T) {
	svc, _, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))
	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeComment, 100))

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.UpdateLastSeen(ctx, 1))

	count, err = svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// 游标之后的新事件重新计为未读
	time.Sleep(time.Millisecond)
	require.NoError(t, svc.Create(ctx, 1, 3, consts.ActionTypeLike, 100))
	count, err = svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationCountIsolatedPerReceiver(t *testing.T) {
	svc, _, _ := newNotificationServiceForTest()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, 1, 2, consts.ActionTypeLike, 100))

	count, err := svc.Count(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
