package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/model"
	"Ripple/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

type ChatService interface {
	CreateChannel(ctx context.Context, requesterID, targetID uint64) (*dto.ChannelDTO, error)
	GetChannel(ctx context.Context, viewerID, channelID uint64) (*dto.ChannelDTO, error)
	ListChannels(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.ChannelDTO, error)
	RemoveChannel(ctx context.Context, userID, channelID uint64) error
	JoinChannel(ctx context.Context, userID, channelID uint64) error
	SendMessage(ctx context.Context, senderID, channelID uint64, content string) (*dto.MessageDTO, error)
	GetMessages(ctx context.Context, userID, channelID uint64, before time.Time, pageSize int) ([]*dto.MessageDTO, error)
	RemoveMessage(ctx context.Context, userID, messageID uint64) error
}

type chatServiceImpl struct {
	channelRepo  repository.ChannelRepo
	messageRepo  repository.MessageRepo
	presenceRepo repository.PresenceRepo
	userDir      repository.UserDirectory
}

func NewChatService(
	channelRepo repository.ChannelRepo,
	messageRepo repository.MessageRepo,
	presenceRepo repository.PresenceRepo,
	userDir repository.UserDirectory,
) ChatService {
	return &chatServiceImpl{
		channelRepo:  channelRepo,
		messageRepo:  messageRepo,
		presenceRepo: presenceRepo,
		userDir:      userDir,
	}
}

// pairKeyOf 归一化成员对标识，保证 (a,b) 与 (b,a) 落在同一个键上
func pairKeyOf(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// CreateChannel 创建 1:1 频道，成员对不区分方向，已存在即冲突
func (s *chatServiceImpl) CreateChannel(ctx context.Context, requesterID, targetID uint64) (*dto.ChannelDTO, error) {
	if requesterID == targetID {
		return nil, ErrChannelSelf
	}

	pairKey := pairKeyOf(requesterID, targetID)
	_, err := s.channelRepo.GetChannelByPairKey(ctx, pairKey)
	if err == nil {
		return nil, ErrChannelExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("查询频道失败", "pair_key", pairKey, "error", err)
		return nil, UnExpectedError
	}

	ch := &model.ChatChannel{
		FirstUserID:  requesterID,
		SecondUserID: targetID,
		PairKey:      pairKey,
	}
	if err = s.channelRepo.CreateChannel(ctx, ch); err != nil {
		// 并发创建同一成员对时唯一索引拒绝后到者
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrChannelExists
		}
		slog.Error("创建频道失败", "pair_key", pairKey, "error", err)
		return nil, UnExpectedError
	}
	return s.toChannelDTO(ctx, ch, requesterID), nil
}

// GetChannel 获取频道详情，viewer 是成员时补全对手方信息
func (s *chatServiceImpl) GetChannel(ctx context.Context, viewerID, channelID uint64) (*dto.ChannelDTO, error) {
	ch, err := s.channelRepo.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		slog.Error("查询频道失败", "channel_id", channelID, "error", err)
		return nil, UnExpectedError
	}
	return s.toChannelDTO(ctx, ch, viewerID), nil
}

// ListChannels 分页获取用户的频道列表
func (s *chatServiceImpl) ListChannels(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.ChannelDTO, error) {
	offset := (page - 1) * pageSize
	channels, err := s.channelRepo.ListUserChannels(ctx, userID, offset, pageSize)
	if err != nil {
		slog.Error("查询频道列表失败", "user_id", userID, "error", err)
		return nil, UnExpectedError
	}

	res := make([]*dto.ChannelDTO, 0, len(channels))
	for _, ch := range channels {
		res = append(res, s.toChannelDTO(ctx, ch, userID))
	}
	return res, nil
}

// RemoveChannel 成员删除频道，消息与在场记录随频道一并删除
func (s *chatServiceImpl) RemoveChannel(ctx context.Context, userID, channelID uint64) error {
	if _, err := s.channelRepo.GetChannel(ctx, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChannelNotFound
		}
		slog.Error("查询频道失败", "channel_id", channelID, "error", err)
		return UnExpectedError
	}
	if err := s.requireParticipant(ctx, channelID, userID); err != nil {
		return err
	}

	if err := s.channelRepo.DeleteChannelCascade(ctx, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChannelNotFound
		}
		slog.Error("删除频道失败", "channel_id", channelID, "error", err)
		return UnExpectedError
	}
	return nil
}

// JoinChannel 校验成员身份并刷新在场时间
func (s *chatServiceImpl) JoinChannel(ctx context.Context, userID, channelID uint64) error {
	if err := s.requireParticipant(ctx, channelID, userID); err != nil {
		return err
	}
	if err := s.presenceRepo.Touch(ctx, channelID, userID, time.Now()); err != nil {
		slog.Error("刷新在场时间失败", "channel_id", channelID, "user_id", userID, "error", err)
		return UnExpectedError
	}
	return nil
}

// SendMessage 先持久化再返回，调用方拿到的消息一定已经落库
func (s *chatServiceImpl) SendMessage(ctx context.Context, senderID, channelID uint64, content string) (*dto.MessageDTO, error) {
	if content == "" {
		return nil, ErrParamInvalid
	}
	if err := s.requireParticipant(ctx, channelID, senderID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		SentAt:    time.Now(),
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		slog.Error("持久化消息失败", "channel_id", channelID, "error", err)
		return nil, UnExpectedError
	}

	res := &dto.MessageDTO{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		SentAt:    msg.SentAt,
	}
	if sender, err := s.userDir.GetUserById(ctx, senderID); err == nil {
		res.SenderName = displayName(sender)
		res.SenderAvatarURL = sender.AvatarURL
	}
	return res, nil
}

// GetMessages 键集分页获取历史消息，before 为零值时取当前时间
func (s *chatServiceImpl) GetMessages(ctx context.Context, userID, channelID uint64, before time.Time, pageSize int) ([]*dto.MessageDTO, error) {
	if err := s.requireParticipant(ctx, channelID, userID); err != nil {
		return nil, err
	}
	if before.IsZero() {
		before = time.Now()
	}

	messages, err := s.messageRepo.ListBefore(ctx, channelID, before, pageSize)
	if err != nil {
		slog.Error("查询历史消息失败", "channel_id", channelID, "error", err)
		return nil, UnExpectedError
	}

	senderIDs := make([]uint64, 0, len(messages))
	for _, msg := range messages {
		senderIDs = append(senderIDs, msg.SenderID)
	}
	senders, err := s.userDir.GetUsersByIds(ctx, senderIDs)
	if err != nil {
		senders = map[uint64]*model.User{}
	}

	res := make([]*dto.MessageDTO, 0, len(messages))
	for _, msg := range messages {
		item := &dto.MessageDTO{
			ID:        msg.ID,
			ChannelID: msg.ChannelID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			SentAt:    msg.SentAt,
		}
		if sender, ok := senders[msg.SenderID]; ok {
			item.SenderName = displayName(sender)
			item.SenderAvatarURL = sender.AvatarURL
		}
		res = append(res, item)
	}
	return res, nil
}

// RemoveMessage 频道任一成员都可删除消息，硬删除
func (s *chatServiceImpl) RemoveMessage(ctx context.Context, userID, messageID uint64) error {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		slog.Error("查询消息失败", "message_id", messageID, "error", err)
		return UnExpectedError
	}
	if err = s.requireParticipant(ctx, msg.ChannelID, userID); err != nil {
		return err
	}

	if err = s.messageRepo.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		slog.Error("删除消息失败", "message_id", messageID, "error", err)
		return UnExpectedError
	}
	return nil
}

func (s *chatServiceImpl) requireParticipant(ctx context.Context, channelID, userID uint64) error {
	ok, err := s.channelRepo.IsParticipant(ctx, channelID, userID)
	if err != nil {
		slog.Error("校验频道成员失败", "channel_id", channelID, "user_id", userID, "error", err)
		return UnExpectedError
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

func (s *chatServiceImpl) toChannelDTO(ctx context.Context, ch *model.ChatChannel, viewerID uint64) *dto.ChannelDTO {
	res := &dto.ChannelDTO{
		ID:           ch.ID,
		FirstUserID:  ch.FirstUserID,
		SecondUserID: ch.SecondUserID,
		CreatedAt:    ch.CreatedAt,
	}

	peerID := uint64(0)
	switch viewerID {
	case ch.FirstUserID:
		peerID = ch.SecondUserID
	case ch.SecondUserID:
		peerID = ch.FirstUserID
	default:
		return res
	}

	if peer, err := s.userDir.GetUserById(ctx, peerID); err == nil {
		res.Peer = &dto.UserBriefDTO{
			ID:        peer.ID,
			Username:  peer.Username,
			Nickname:  peer.Nickname,
			AvatarURL: peer.AvatarURL,
		}
	}
	if lastSeen, err := s.presenceRepo.LastSeen(ctx, ch.ID, peerID); err == nil {
		res.PeerLastSeenAt = lastSeen
	}
	return res
}

func displayName(user *model.User) string {
	if user.Nickname != "" {
		return user.Nickname
	}
	return user.Username
}
