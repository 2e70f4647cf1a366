package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/ws", WebSocketHandler(hub, nil, "admin", NewUpgrader([]string{"*"})))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query string) *gorillaWS.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorillaWS.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// TestHub_DeliversByRecipient 测试事件只投递给接收人和管理员
func TestHub_DeliversByRecipient(t *testing.T) {
	hub, server := setupHub(t)

	worker := dial(t, server, "user_id=U1&roles=worker")
	other := dial(t, server, "user_id=U2&roles=worker")
	admin := dial(t, server, "user_id=A1&roles=admin")
	require.Eventually(t, func() bool { return hub.GetClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), &service.TaskEvent{
		Type:       service.EventTaskAssigned,
		TaskID:     "task-1",
		Title:      "Label street scenes",
		Status:     "ASSIGNED",
		Actor:      "A1",
		Time:       time.Now(),
		Recipients: []string{"U1"},
	})
	got := readEvent(t, worker)
	assert.Equal(t, "task.assigned", got["type"])
	assert.Equal(t, "task-1", got["task_id"])
	assert.NotContains(t, got, "Recipients")

	hub.Notify(context.Background(), &service.TaskEvent{
		Type:     service.EventTaskSubmitted,
		TaskID:   "task-1",
		Actor:    "U1",
		Time:     time.Now(),
		ToAdmins: true,
	})
	got = readEvent(t, admin)
	assert.Equal(t, "task.submitted", got["type"])

	// U2 不应该收到任何事件
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

// TestHub_RejectsAnonymous 测试缺少身份时拒绝升级
func TestHub_RejectsAnonymous(t *testing.T) {
	_, server := setupHub(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

// TestHub_UnregisterOnClose 测试连接关闭后注销
func TestHub_UnregisterOnClose(t *testing.T) {
	hub, server := setupHub(t)

	conn := dial(t, server, "user_id=U1")
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// 没有接收人的事件直接忽略
	hub.Notify(context.Background(), &service.TaskEvent{Type: service.EventTaskCreated})
}

// TestHub_OneFramePerEvent 测试连续事件各自成帧
func TestHub_OneFramePerEvent(t *testing.T) {
	hub, server := setupHub(t)

	worker := dial(t, server, "user_id=U1&roles=worker")
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	for _, id := range []string{"task-1", "task-2", "task-3"} {
		hub.Notify(context.Background(), &service.TaskEvent{
			Type:       service.EventTaskApproved,
			TaskID:     id,
			Time:       time.Now(),
			Recipients: []string{"U1"},
		})
	}
	for _, id := range []string{"task-1", "task-2", "task-3"} {
		got := readEvent(t, worker)
		assert.Equal(t, id, got["task_id"])
	}
}

// TestHub_ClosesOnClientData 测试客户端发送数据帧时服务端关闭连接
func TestHub_ClosesOnClientData(t *testing.T) {
	hub, server := setupHub(t)

	conn := dial(t, server, "user_id=U1")
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(gorillaWS.TextMessage, []byte(`{"subscribe":"all"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.ClosePolicyViolation), err.Error())

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
