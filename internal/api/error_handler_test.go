package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	HandleError(c, err)
	return w
}

// TestHandleError_Kinds 测试每种领域错误的状态码
func TestHandleError_Kinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{task.NewValidationError("validation failed", map[string]string{"title": "too short"}), http.StatusBadRequest},
		{task.NewNotFound("task", "T1"), http.StatusNotFound},
		{task.NewForbidden("user %s is not assigned", "U9"), http.StatusForbidden},
		{task.NewInvalidState("task is %s", "APPROVED"), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := recordError(tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}

	w := recordError(errors.New("dial tcp 10.0.0.3:5432: connection refused"))
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

// TestHandleError_PartialFailure 测试部分失败返回 207 和逐条错误
func TestHandleError_PartialFailure(t *testing.T) {
	created := []*task.Task{{ID: "T1"}, {ID: "T3"}}
	items := []task.ItemError{{Index: 1, Kind: task.KindValidation, Message: "disk full"}}

	w := recordError(task.NewPartialFailure(created, items))
	require.Equal(t, http.StatusMultiStatus, w.Code)

	var body PartialFailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PARTIAL_FAILURE", body.Kind)
	assert.Len(t, body.Created, 2)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, 1, body.Failed[0].Index)
	assert.Equal(t, "1 of 3 tasks failed", body.Message)
}

// TestRateLimitMiddleware 测试超过突发容量后返回 429
func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(0.001, 1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestNewPaginationInfo 测试总页数计算
func TestNewPaginationInfo(t *testing.T) {
	assert.Equal(t, 0, NewPaginationInfo(1, 20, 0).TotalPage)
	assert.Equal(t, 1, NewPaginationInfo(1, 20, 20).TotalPage)
	assert.Equal(t, 2, NewPaginationInfo(1, 20, 21).TotalPage)
}

// TestSecurityHeadersMiddleware 测试 HSTS 只在生产环境下发
func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, production := range []bool{false, true} {
		r := gin.New()
		r.Use(SecurityHeadersMiddleware(production))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, apiContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, production, w.Header().Get("Strict-Transport-Security") != "")
	}
}
