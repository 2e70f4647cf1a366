package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// 推送是单向的,客户端只会回 pong 和 close
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client 一个已认证的任务事件订阅连接
type Client struct {
	ID      string
	UserID  string
	IsAdmin bool

	hub  *Hub
	conn *websocket.Conn
	// send 只由 Hub 关闭
	send chan []byte
}

// NewClient 创建订阅连接
func NewClient(id string, userID string, isAdmin bool, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:      id,
		UserID:  userID,
		IsAdmin: isAdmin,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
}

// closeWith 发送关闭帧,可与写循环并发调用
func (c *Client) closeWith(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readLoop 维持读超时并检测断开;收到数据帧视为协议错误
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", c.UserID).Warn("websocket read failed")
			}
			return
		}
		logrus.WithField("user_id", c.UserID).Debug("websocket client sent data frame, closing")
		c.closeWith(websocket.ClosePolicyViolation, "event stream is server to client only")
		return
	}
}

// writeLoop 每个事件单独一帧,空闲时发 ping
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.closeWith(websocket.CloseGoingAway, "")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithError(err).WithField("user_id", c.UserID).Debug("websocket write failed")
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
