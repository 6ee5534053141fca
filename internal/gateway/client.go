package gateway

import (
	"Ripple/internal/service"
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

const (
	eventJoin   = "join"
	eventSend   = "send"
	eventRemove = "remove"
	eventError  = "error"
)

// clientEvent 客户端上行事件
type clientEvent struct {
	Event     string `json:"event"`
	ChannelID uint64 `json:"channel_id,omitempty"`
	MessageID uint64 `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// serverEvent 服务端下行事件
type serverEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client 一条 websocket 连接，读写各占一个 goroutine
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      uint64
	chatService service.ChatService
}

// Serve 接管升级后的连接，阻塞直到连接关闭
func Serve(hub *Hub, conn *websocket.Conn, userID uint64, chatService service.ChatService) {
	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		userID:      userID,
		chatService: chatService,
	}
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket 连接异常关闭", "user_id", c.userID, "error", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch 处理一条上行事件，失败只回错误给当前连接，不影响连接状态
func (c *Client) dispatch(raw []byte) {
	ctx := context.Background()

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.sendError(service.ErrParamInvalid)
		return
	}

	switch event.Event {
	case eventJoin:
		if err := c.chatService.JoinChannel(ctx, c.userID, event.ChannelID); err != nil {
			c.sendError(err)
			return
		}
		room := RoomName(event.ChannelID)
		c.hub.Join(room, c)
		c.reply(serverEvent{Event: eventJoin, Data: room})
	case eventSend:
		msg, err := c.chatService.SendMessage(ctx, c.userID, event.ChannelID, event.Content)
		if err != nil {
			c.sendError(err)
			return
		}
		payload, err := json.Marshal(serverEvent{Event: eventSend, Data: msg})
		if err != nil {
			slog.Error("消息事件序列化失败", "error", err)
			return
		}
		c.hub.Broadcast(RoomName(event.ChannelID), payload)
	case eventRemove:
		if err := c.chatService.RemoveMessage(ctx, c.userID, event.MessageID); err != nil {
			c.sendError(err)
			return
		}
		c.reply(serverEvent{Event: eventRemove, Data: event.MessageID})
	default:
		c.sendError(service.ErrParamInvalid)
	}
}

func (c *Client) reply(event serverEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("下行事件序列化失败", "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) sendError(err error) {
	c.reply(serverEvent{Event: eventError, Data: err.Error()})
}
