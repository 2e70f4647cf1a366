package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
)

// NewUpgrader 创建连接升级器,allowedOrigins 含 "*" 时不检查 Origin
func NewUpgrader(allowedOrigins []string) *gorillaWS.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &gorillaWS.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// principalFromQuery 浏览器无法为 WebSocket 设置请求头,身份从 query 参数读取
// 配置了校验器时读取 token,否则读取开发模式的 user_id 和 roles
func principalFromQuery(c *gin.Context, validator auth.TokenValidator) (*auth.Principal, bool) {
	if validator == nil {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			return nil, false
		}
		return &auth.Principal{UserID: userID, Roles: strings.Split(c.Query("roles"), ",")}, true
	}

	token := c.Query("token")
	if token == "" {
		return nil, false
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return claims.Principal(), true
}

// WebSocketHandler WebSocket 处理器,连接按用户注册到 Hub
func WebSocketHandler(hub *Hub, validator auth.TokenValidator, adminRole string, upgrader *gorillaWS.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromQuery(c, validator)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing or invalid credentials",
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已经写回了错误响应
			return
		}

		client := NewClient(uuid.NewString(), principal.UserID, principal.HasRole(adminRole), hub, conn)
		select {
		case hub.Register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.readLoop()
		go client.writeLoop()
	}
}
