package handler

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/api/middleware"
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"
	"fmt"
	"io"
	log "log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List 获取通知列表，拉取第一页时前移未读游标
func (s *NotificationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	userID := c.GetUint64("user_id")

	list, err := s.notificationService.GetAll(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	if page == 1 {
		if err = s.notificationService.UpdateLastSeen(c.Request.Context(), userID); err != nil {
			log.Warn("前移未读游标失败", "user_id", userID, "err", err)
		}
	}
	response.Success(c, list)
}

// Count 获取未读数
func (s *NotificationHandler) Count(c *gin.Context) {
	userID := c.GetUint64("user_id")

	count, err := s.notificationService.Count(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.NotificationUnreadDTO{UnreadCount: count})
}

// Stream 通知推送流 (SSE)
// 通过 token 查询参数鉴权，只下发订阅之后产生的事件，不回放历史。
func (s *NotificationHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := middleware.AuthenticateToken(c.Request.Context(), token)
	if err != nil {
		log.Warn("推送流鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	events, cancel := s.notificationService.Stream().Subscribe(16)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	log.Info("通知推送流已建立", "user_id", userID)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			if event.ReceiverID != userID {
				return true
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Error("推送事件序列化失败", "err", err)
				return true
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
			return true
		}
	})
}
