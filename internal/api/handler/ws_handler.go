package handler

import (
	"Ripple/internal/api/middleware"
	"Ripple/internal/gateway"
	"Ripple/internal/pkg/response"
	"Ripple/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	hub         *gateway.Hub
	chatService service.ChatService
}

func NewWsHandler(hub *gateway.Hub, chatService service.ChatService) *WsHandler {
	return &WsHandler{hub: hub, chatService: chatService}
}

// Connect 长连接入口：token 查询参数鉴权后升级 Websocket，交由网关接管
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := middleware.AuthenticateToken(c.Request.Context(), token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	log.Info("用户 WS 连接已建立", "user_id", claims.UserID)
	gateway.Serve(s.hub, conn, claims.UserID, s.chatService)
	log.Info("用户 WS 连接已断开", "user_id", claims.UserID)
}
