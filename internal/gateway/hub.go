package gateway

import (
	"Ripple/internal/pkg/consts"
	"log/slog"
	"strconv"
	"sync"
)

// RoomName 返回频道对应的房间标识
func RoomName(channelID uint64) string {
	return consts.ChatChannelRoomKey + strconv.FormatUint(channelID, 10)
}

// Hub 进程内房间表：房间按需创建，最后一个连接离开即回收
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join 把连接挂入房间，重复加入幂等
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave 把连接从单个房间移除
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, c)
}

// Remove 连接断开时从所有房间移除
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.removeLocked(room, c)
	}
}

func (h *Hub) removeLocked(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast 向房间内全部连接投递，发送缓冲已满的连接丢弃本条
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			slog.Warn("连接发送缓冲已满，丢弃广播", "room", room, "user_id", c.userID)
		}
	}
}

// RoomSize 返回房间当前连接数
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
