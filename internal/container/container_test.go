package container

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewContainer 测试使用 sqlite 和默认配置装配全部组件
func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "container.db")
	cfg.Metrics.CollectSchedule = "@every 1h"

	c, err := NewContainer(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	defer c.Close()

	assert.NotNil(t, c.DB())
	assert.NotNil(t, c.TaskService())
	assert.NotNil(t, c.UserRepository())
	assert.Nil(t, c.RelationWriter())

	router := c.Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "openfga")
	assert.Contains(t, w.Body.String(), `"websocket_clients":0`)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	req.Header.Set("X-User-ID", "U1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestNewContainer_BadSchedule 测试非法采集周期在启动时报错
func TestNewContainer_BadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "container.db")
	cfg.Metrics.CollectSchedule = "every now and then"

	c, err := NewContainer(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Start())
}
