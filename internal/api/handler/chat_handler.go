package handler

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/pkg/consts"
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// CreateChannel 创建 1:1 频道
func (s *ChatHandler) CreateChannel(c *gin.Context) {
	var req dto.CreateChannelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")

	res, err := s.chatService.CreateChannel(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListChannels 获取当前用户的频道列表
func (s *ChatHandler) ListChannels(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	userID := c.GetUint64("user_id")

	list, err := s.chatService.ListChannels(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	if len(list) < pageSize {
		c.Header(consts.EndOfListHeader, "true")
	}
	response.Success(c, list)
}

// GetChannel 获取频道详情
func (s *ChatHandler) GetChannel(c *gin.Context) {
	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	res, err := s.chatService.GetChannel(c.Request.Context(), userID, channelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetMessages 键集分页获取历史消息
// timestamp 为毫秒时间戳游标，缺省时从当前时间开始；
// 返回条数不足一页时通过 X-End-Of-List 响应头告知到底。
func (s *ChatHandler) GetMessages(c *gin.Context) {
	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	timestamp, _ := strconv.ParseInt(c.DefaultQuery("timestamp", "0"), 10, 64)

	var before time.Time
	if timestamp > 0 {
		before = time.UnixMilli(timestamp)
	}

	userID := c.GetUint64("user_id")

	list, err := s.chatService.GetMessages(c.Request.Context(), userID, channelID, before, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	if len(list) < size {
		c.Header(consts.EndOfListHeader, "true")
	}
	response.Success(c, list)
}

// DeleteChannel 删除频道及其全部消息
func (s *ChatHandler) DeleteChannel(c *gin.Context) {
	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	if err = s.chatService.RemoveChannel(c.Request.Context(), userID, channelID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
