package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/api"
	"github.com/stanondieki/Infera-AI-sub003/internal/cache"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/database"
	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope 响应信封,兼容成功、错误和部分失败三种格式
type envelope struct {
	Code       int                `json:"code"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Kind       string             `json:"kind"`
	Fields     map[string]string  `json:"fields"`
	Created    []json.RawMessage  `json:"created"`
	Failed     []json.RawMessage  `json:"failed"`
	Pagination api.PaginationInfo `json:"pagination"`
}

type taskView struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	AssignedTo    []string `json:"assigned_to"`
	TotalEarnings float64  `json:"total_earnings"`
	Rating        *int     `json:"rating"`
}

type testServer struct {
	router *gin.Engine
}

// setupTestServer 创建测试服务器,开发模式请求头认证
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	for _, u := range []*model.UserModel{
		{ID: "U1", Name: "Ada", Email: "ada@infera.ai", Active: true},
		{ID: "U2", Name: "Grace", Email: "grace@infera.ai", Active: true},
	} {
		require.NoError(t, userRepo.Upsert(context.Background(), u))
	}

	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	cfg := config.Default()
	cfg.RateLimit.RPS = 0

	historyRepo := repository.NewStateHistoryRepository(db)
	reviewRepo := repository.NewReviewRecordRepository(db)
	router := api.SetupRoutesWithConfig(cfg, &api.Dependencies{
		DB:               db,
		TaskService:      service.NewTaskService(taskRepo, userRepo, auditSvc),
		QueryService:     service.NewQueryService(taskRepo, historyRepo, reviewRepo),
		AnalyticsService: service.NewAnalyticsService(taskRepo, userRepo, cache.NewMemoryCache(time.Minute)),
	})
	return &testServer{router: router}
}

// do 以指定身份发送请求,user 为空时不带认证头
func (s *testServer) do(t *testing.T, method, path string, body interface{}, user, roles string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-User-Roles", roles)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, &env
}

func (s *testServer) admin(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	return s.do(t, method, path, body, "admin-1", "admin")
}

func decodeTask(t *testing.T, raw json.RawMessage) taskView {
	t.Helper()
	var v taskView
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func annotationBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"template_id":     "DATA_ANNOTATION",
		"title":           title,
		"inputs":          []string{"https://data.infera.ai/samples/street-001.jpg"},
		"hourly_rate":     15,
		"estimated_hours": 2,
	}
}

func (s *testServer) createTask(t *testing.T) taskView {
	t.Helper()
	w, env := s.admin(t, http.MethodPost, "/api/v1/tasks", annotationBody("Label street scenes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeTask(t, env.Data)
}

// TestTaskLifecycle 测试创建、分配、提交、审核通过的完整流程
func TestTaskLifecycle(t *testing.T) {
	s := setupTestServer(t)
	created := s.createTask(t)
	assert.Equal(t, "AVAILABLE", created.Status)
	assert.Zero(t, created.TotalEarnings)

	w, env := s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/assign", map[string]interface{}{"user_ids": []string{"U1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assigned := decodeTask(t, env.Data)
	assert.Equal(t, "ASSIGNED", assigned.Status)
	assert.Equal(t, []string{"U1"}, assigned.AssignedTo)

	w, env = s.do(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/submit", map[string]interface{}{
		"notes":        "all vehicles boxed",
		"deliverables": []string{"s3://deliverables/labels.json"},
		"actual_hours": 2.5,
	}, "U1", "worker")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "UNDER_REVIEW", decodeTask(t, env.Data).Status)

	w, env = s.admin(t, http.MethodGet, "/api/v1/review-queue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	w, env = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/review", map[string]interface{}{
		"action": "approve",
		"rating": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decodeTask(t, env.Data)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, 37.5, approved.TotalEarnings)
	require.NotNil(t, approved.Rating)
	assert.Equal(t, 5, *approved.Rating)

	// 重复审核是状态冲突,不是校验错误
	w, env = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/review", map[string]interface{}{
		"action": "approve",
		"rating": 4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Kind)

	w, env = s.do(t, http.MethodGet, "/api/v1/tasks/"+created.ID+"/history", nil, "U1", "worker")
	require.Equal(t, http.StatusOK, w.Code)
	var history []struct {
		ToStatus string `json:"to_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 4)
	assert.Equal(t, "APPROVED", history[3].ToStatus)

	w, env = s.admin(t, http.MethodGet, "/api/v1/tasks/"+created.ID+"/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"action":"approve"`)

	w, env = s.admin(t, http.MethodGet, "/api/v1/analytics/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.EqualValues(t, 1, summary.TotalTasks)
	assert.Equal(t, 37.5, summary.PayableValue)
}

// TestAuthorization 测试认证和角色守卫
func TestAuthorization(t *testing.T) {
	s := setupTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/tasks", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/tasks", annotationBody("Label street scenes"), "U1", "worker")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/analytics/summary", nil, "U1", "worker")
	assert.Equal(t, http.StatusForbidden, w.Code)

	created := s.createTask(t)
	_, _ = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/assign", map[string]interface{}{"user_ids": []string{"U1"}})

	// 不在分配列表中的工作者
	w, env := s.do(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/start", nil, "U2", "worker")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Kind)

	w, env = s.do(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/start", nil, "U1", "worker")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", decodeTask(t, env.Data).Status)
}

// TestErrorMapping 测试领域错误到 HTTP 状态码的映射
func TestErrorMapping(t *testing.T) {
	s := setupTestServer(t)

	body := annotationBody("Labl")
	body["hourly_rate"] = 0
	w, env := s.admin(t, http.MethodPost, "/api/v1/tasks", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Kind)
	assert.Contains(t, env.Fields, "title")
	assert.Contains(t, env.Fields, "hourly_rate")

	w, env = s.admin(t, http.MethodGet, "/api/v1/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Kind)

	w, _ = s.admin(t, http.MethodGet, "/api/v1/tasks/bad%20id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	created := s.createTask(t)
	w, env = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/review", map[string]interface{}{"action": "escalate"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "action")

	w, env = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/review", map[string]interface{}{
		"action":   "reject",
		"feedback": "missing labels",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Kind)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "admin-1")
	req.Header.Set("X-User-Roles", "admin")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCreateBulk 测试批量创建和数量边界
func TestCreateBulk(t *testing.T) {
	s := setupTestServer(t)

	w, env := s.admin(t, http.MethodPost, "/api/v1/tasks/bulk", map[string]interface{}{
		"category":         "AI_TRAINING",
		"count":            3,
		"difficulty_level": "intermediate",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tasks []taskView
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	assert.Len(t, tasks, 3)

	w, env = s.admin(t, http.MethodPost, "/api/v1/tasks/bulk", map[string]interface{}{
		"category": "AI_TRAINING",
		"count":    51,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "count")
}

// TestListTasks 测试列表过滤和分页
func TestListTasks(t *testing.T) {
	s := setupTestServer(t)
	for i := 0; i < 3; i++ {
		s.createTask(t)
	}
	created := s.createTask(t)
	_, _ = s.admin(t, http.MethodPost, "/api/v1/tasks/"+created.ID+"/assign", map[string]interface{}{"user_ids": []string{"U2"}})

	w, env := s.admin(t, http.MethodGet, "/api/v1/tasks?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPage)

	w, env = s.admin(t, http.MethodGet, "/api/v1/tasks?status=assigned&assignee=U2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	w, env = s.admin(t, http.MethodGet, "/api/v1/tasks?category=data_annotation&search=street", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, env.Pagination.Total)

	w, env = s.admin(t, http.MethodGet, "/api/v1/tasks?status=DONE&page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "status")
	assert.Contains(t, env.Fields, "page")

	w, _ = s.admin(t, http.MethodGet, "/api/v1/tasks?sort_by=password", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestTemplates 测试模板目录接口
func TestTemplates(t *testing.T) {
	s := setupTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/templates", nil, "U1", "worker")
	require.Equal(t, http.StatusOK, w.Code)
	var templates []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &templates))
	assert.NotEmpty(t, templates)

	w, env = s.do(t, http.MethodGet, "/api/v1/templates/translation?section=content", nil, "U1", "worker")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "source_language")

	w, _ = s.do(t, http.MethodGet, "/api/v1/templates/PODCAST", nil, "U1", "worker")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/templates/RESEARCH/validate", map[string]interface{}{
		"section": "content",
		"values":  map[string]interface{}{},
	}, "U1", "worker")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "research_topic")

	w, _ = s.do(t, http.MethodPost, "/api/v1/templates/RESEARCH/validate", map[string]interface{}{
		"section": "content",
		"values":  map[string]interface{}{"research_topic": "Open source labeling tools"},
	}, "U1", "worker")
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestOpsEndpoints 测试健康检查、指标、请求 ID 和 CORS 预检
func TestOpsEndpoints(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(api.RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_requests_total")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "https://console.infera.ai")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
