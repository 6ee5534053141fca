package service

import (
	"Ripple/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeChannelRepo struct {
	channels map[uint64]*model.ChatChannel
	nextID   uint64
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[uint64]*model.ChatChannel), nextID: 1}
}

func (s *fakeChannelRepo) CreateChannel(_ context.Context, ch *model.ChatChannel) error {
	ch.ID = s.nextID
	ch.CreatedAt = time.Now()
	s.nextID++
	s.channels[ch.ID] = ch
	return nil
}

func (s *fakeChannelRepo) GetChannel(_ context.Context, channelID uint64) (*model.ChatChannel, error) {
	ch, ok := s.channels[channelID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ch, nil
}

func (s *fakeChannelRepo) GetChannelByPairKey(_ context.Context, pairKey string) (*model.ChatChannel, error) {
	for _, ch := range s.channels {
		if ch.PairKey == pairKey {
			return ch, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeChannelRepo) IsParticipant(_ context.Context, channelID, userID uint64) (bool, error) {
	ch, ok := s.channels[channelID]
	if !ok {
		return false, nil
	}
	return ch.FirstUserID == userID || ch.SecondUserID == userID, nil
}

func (s *fakeChannelRepo) ListUserChannels(_ context.Context, userID uint64, offset, limit int) ([]*model.ChatChannel, error) {
	var list []*model.ChatChannel
	for _, ch := range s.channels {
		if ch.FirstUserID == userID || ch.SecondUserID == userID {
			list = append(list, ch)
		}
	}
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (s *fakeChannelRepo) DeleteChannelCascade(_ context.Context, channelID uint64) error {
	if _, ok := s.channels[channelID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.channels, channelID)
	return nil
}

type fakeMessageRepo struct {
	messages map[uint64]*model.ChatMessage
	nextID   uint64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uint64]*model.ChatMessage), nextID: 1}
}

func (s *fakeMessageRepo) CreateMessage(_ context.Context, msg *model.ChatMessage) error {
	msg.ID = s.nextID
	s.nextID++
	s.messages[msg.ID] = msg
	return nil
}

func (s *fakeMessageRepo) GetMessage(_ context.Context, messageID uint64) (*model.ChatMessage, error) {
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return msg, nil
}

func (s *fakeMessageRepo) ListBefore(_ context.Context, channelID uint64, before time.Time, limit int) ([]*model.ChatMessage, error) {
	var list []*model.ChatMessage
	for _, msg := range s.messages {
		if msg.ChannelID == channelID && msg.SentAt.Before(before) {
			list = append(list, msg)
		}
	}
	// 按 sent_at 倒序
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].SentAt.After(list[i].SentAt) {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *fakeMessageRepo) DeleteMessage(_ context.Context, messageID uint64) error {
	if _, ok := s.messages[messageID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.messages, messageID)
	return nil
}

type fakePresenceRepo struct {
	seen map[[2]uint64]time.Time
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{seen: make(map[[2]uint64]time.Time)}
}

func (s *fakePresenceRepo) Touch(_ context.Context, channelID, userID uint64, seenAt time.Time) error {
	s.seen[[2]uint64{channelID, userID}] = seenAt
	return nil
}

func (s *fakePresenceRepo) LastSeen(_ context.Context, channelID, userID uint64) (*time.Time, error) {
	t, ok := s.seen[[2]uint64{channelID, userID}]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type fakeUserDirectory struct {
	users map[uint64]*model.User
}

func newFakeUserDirectory(users ...*model.User) *fakeUserDirectory {
	res := &fakeUserDirectory{users: make(map[uint64]*model.User)}
	for _, u := range users {
		res.users[u.ID] = u
	}
	return res
}

func (s *fakeUserDirectory) GetUserById(_ context.Context, userID uint64) (*model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeUserDirectory) GetUsersByIds(_ context.Context, userIDs []uint64) (map[uint64]*model.User, error) {
	res := make(map[uint64]*model.User)
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			res[id] = u
		}
	}
	return res, nil
}

func newChatServiceForTest() (ChatService, *fakeChannelRepo, *fakeMessageRepo, *fakePresenceRepo) {
	channelRepo := newFakeChannelRepo()
	messageRepo := newFakeMessageRepo()
	presenceRepo := newFakePresenceRepo()
	userDir := newFakeUserDirectory(
		&model.User{ID: 1, Username: "alice", Nickname: "Alice"},
		&model.User{ID: 2, Username: "bob"},
		&model.User{ID: 3, Username: "carol"},
	)
	svc := NewChatService(channelRepo, messageRepo, presenceRepo, userDir)
	return svc, channelRepo, messageRepo, presenceRepo
}

func TestCreateChannel(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ch.FirstUserID)
	assert.Equal(t, uint64(2), ch.SecondUserID)
	assert.NotNil(t, ch.Peer)
	assert.Equal(t, uint64(2), ch.Peer.ID)
}

func TestCreateChannelSelf(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()

	_, err := svc.CreateChannel(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrChannelSelf)
}

func TestCreateChannelDuplicateBothOrders(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	_, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.CreateChannel(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrChannelExists)

	// 反向同样冲突
	_, err = svc.CreateChannel(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrChannelExists)
}

// racyChannelRepo 模拟并发竞争：查询未命中但插入被唯一索引拒绝
type racyChannelRepo struct {
	*fakeChannelRepo
}

func (s *racyChannelRepo) CreateChannel(_ context.Context, _ *model.ChatChannel) error {
	return gorm.ErrDuplicatedKey
}

func TestCreateChannelDuplicateKeyRace(t *testing.T) {
	channelRepo := &racyChannelRepo{fakeChannelRepo: newFakeChannelRepo()}
	svc := NewChatService(channelRepo, newFakeMessageRepo(), newFakePresenceRepo(),
		newFakeUserDirectory(&model.User{ID: 1, Username: "alice"}, &model.User{ID: 2, Username: "bob"}))

	_, err := svc.CreateChannel(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrChannelExists)
}

func TestGetChannelNotFound(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()

	_, err := svc.GetChannel(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestSendMessageNotParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 3, ch.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSendMessagePersisted(t *testing.T) {
	svc, _, messageRepo, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, 1, ch.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "Alice", msg.SenderName)

	stored, err := messageRepo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Content, stored.Content)
}

func TestSendMessageEmptyContent(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, ch.ID, "")
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestGetMessagesKeysetPagination(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = svc.SendMessage(ctx, 1, ch.ID, "msg")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page1, err := svc.GetMessages(ctx, 1, ch.ID, time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	// 倒序：新消息在前
	assert.True(t, page1[0].SentAt.After(page1[2].SentAt))

	// 以末条时间为游标取下一页，无重叠
	page2, err := svc.GetMessages(ctx, 1, ch.ID, page1[2].SentAt, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	for _, msg := range page2 {
		assert.True(t, msg.SentAt.Before(page1[2].SentAt))
	}
}

func TestGetMessagesNotParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.GetMessages(ctx, 3, ch.ID, time.Time{}, 10)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestRemoveMessageByEitherParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, 1, ch.ID, "hello")
	require.NoError(t, err)

	// 对方成员也可以删除
	err = svc.RemoveMessage(ctx, 2, msg.ID)
	require.NoError(t, err)

	err = svc.RemoveMessage(ctx, 2, msg.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRemoveMessageNotParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, 1, ch.ID, "hello")
	require.NoError(t, err)

	err = svc.RemoveMessage(ctx, 3, msg.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestRemoveChannel(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, ch.ID, "hello")
	require.NoError(t, err)

	// 任一成员都可以删除
	err = svc.RemoveChannel(ctx, 2, ch.ID)
	require.NoError(t, err)

	_, err = svc.GetChannel(ctx, 1, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	err = svc.RemoveChannel(ctx, 2, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestRemoveChannelNotParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	err = svc.RemoveChannel(ctx, 3, ch.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestJoinChannelTouchesPresence(t *testing.T) {
	svc, _, _, presenceRepo := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	err = svc.JoinChannel(ctx, 2, ch.ID)
	require.NoError(t, err)

	seen, err := presenceRepo.LastSeen(ctx, ch.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, seen)

	// 重复加入刷新时间
	first := *seen
	time.Sleep(time.Millisecond)
	err = svc.JoinChannel(ctx, 2, ch.ID)
	require.NoError(t, err)
	seen, err = presenceRepo.LastSeen(ctx, ch.ID, 2)
	require.NoError(t, err)
	assert.True(t, seen.After(first))
}

func TestJoinChannelNotParticipant(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	err = svc.JoinChannel(ctx, 3, ch.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestListChannelsPeerPerspective(t *testing.T) {
	svc, _, _, _ := newChatServiceForTest()
	ctx := context.Background()

	_, err := svc.CreateChannel(ctx, 1, 2)
	require.NoError(t, err)

	list, err := svc.ListChannels(ctx, 2, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Peer)
	// 视角在 2，对手方是 1
	assert.Equal(t, uint64(1), list[0].Peer.ID)
}

func TestPairKeyOf(t *testing.T) {
	assert.Equal(t, "1_2", pairKeyOf(1, 2))
	assert.Equal(t, "1_2", pairKeyOf(2, 1))
	assert.Equal(t, "7_42", pairKeyOf(42, 7))
}
