package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
)

// delivery 一条待投递的事件
type delivery struct {
	recipients map[string]bool
	toAdmins   bool
	message    []byte
}

// Hub 管理所有 WebSocket 连接,按用户投递任务事件
type Hub struct {
	clients map[*Client]bool

	// Register 注册新客户端
	Register chan *Client

	// Unregister 注销客户端
	Unregister chan *Client

	deliveries chan *delivery
	done       chan struct{}
	stopOnce   sync.Once

	// 保护 clients,写操作只在 Run 中进行
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		deliveries: make(chan *delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run 运行 Hub,直到 Stop 被调用
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.remove(client)

		case d := <-h.deliveries:
			h.deliver(d)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 关闭 Hub 和所有连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// deliver 投递给匹配的客户端,发送队列满的客户端被断开
func (h *Hub) deliver(d *delivery) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !d.recipients[client.UserID] && !(d.toAdmins && client.IsAdmin) {
			continue
		}
		select {
		case client.send <- d.message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logrus.WithField("user_id", client.UserID).Warn("websocket client too slow, disconnecting")
		h.remove(client)
	}
}

// Notify 推送任务事件,实现 service.Notifier
// 不阻塞调用方,Hub 积压时丢弃事件
func (h *Hub) Notify(_ context.Context, event *service.TaskEvent) {
	if event == nil || (len(event.Recipients) == 0 && !event.ToAdmins) {
		return
	}
	message, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("task_id", event.TaskID).Error("failed to encode task event")
		return
	}

	recipients := make(map[string]bool, len(event.Recipients))
	for _, id := range event.Recipients {
		recipients[id] = true
	}

	select {
	case h.deliveries <- &delivery{recipients: recipients, toAdmins: event.ToAdmins, message: message}:
	case <-h.done:
	default:
		logrus.WithFields(logrus.Fields{
			"task_id": event.TaskID,
			"event":   event.Type,
		}).Warn("websocket hub backlog full, dropping event")
	}
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
