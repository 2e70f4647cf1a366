package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stanondieki/Infera-AI-sub003/internal/cache"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/database"
	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	admin = "admin-1"
	u1    = "U1"
	u2    = "U2"
	u3    = "U3"
	idle  = "U-idle"
)

// recordingNotifier 记录推送的事件
type recordingNotifier struct {
	mu     sync.Mutex
	events []*service.TaskEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e *service.TaskEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *recordingNotifier) last() *service.TaskEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return nil
	}
	return n.events[len(n.events)-1]
}

// testClock 每次调用前进一秒
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	db        *gorm.DB
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	tasks     service.TaskService
	query     service.QueryService
	analytics service.AnalyticsService
	notifier  *recordingNotifier
	clock     *testClock
}

// setupTestService 创建服务测试环境,预置三个启用用户和一个停用用户
func setupTestService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "service.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		db:        db,
		taskRepo:  repository.NewTaskRepository(db),
		userRepo:  repository.NewUserRepository(db),
		auditRepo: repository.NewAuditLogRepository(db),
		notifier:  &recordingNotifier{},
		clock:     &testClock{now: time.Now().UTC().Truncate(time.Second)},
	}
	auditSvc := service.NewAuditLogService(f.auditRepo)
	f.tasks = service.NewTaskService(f.taskRepo, f.userRepo, auditSvc,
		service.WithNotifier(f.notifier),
		service.WithClock(f.clock.Now),
	)
	f.query = service.NewQueryService(f.taskRepo,
		repository.NewStateHistoryRepository(db),
		repository.NewReviewRecordRepository(db),
	)
	f.analytics = service.NewAnalyticsService(f.taskRepo, f.userRepo, cache.NewMemoryCache(time.Minute))

	ctx := context.Background()
	for _, u := range []*model.UserModel{
		{ID: u1, Name: "Ada", Email: "ada@infera.ai", Active: true},
		{ID: u2, Name: "Grace", Email: "grace@infera.ai", Active: true},
		{ID: u3, Name: "Linus", Email: "linus@infera.ai", Active: true},
		{ID: idle, Name: "Idle", Email: "idle@infera.ai", Active: false},
	} {
		require.NoError(t, f.userRepo.Upsert(ctx, u))
	}
	return f
}

func float(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// annotationInput 数据标注模板的最小覆盖值
func annotationInput(title string) *service.TaskInput {
	return &service.TaskInput{
		Title:          title,
		Inputs:         []string{"https://data.infera.ai/samples/street-001.jpg"},
		HourlyRate:     float(15),
		EstimatedHours: float(2),
	}
}

// createAnnotation 创建一个数据标注任务
func (f *fixture) createAnnotation(t *testing.T, title string) *task.Task {
	t.Helper()
	tsk, err := f.tasks.CreateFromTemplate(context.Background(), admin, "DATA_ANNOTATION", annotationInput(title))
	require.NoError(t, err)
	return tsk
}

// submitted 创建任务并推进到 UNDER_REVIEW
func (f *fixture) submitted(t *testing.T, worker string, hours float64) *task.Task {
	t.Helper()
	ctx := context.Background()
	tsk := f.createAnnotation(t, "Label street scenes")
	_, err := f.tasks.Assign(ctx, admin, tsk.ID, []string{worker})
	require.NoError(t, err)
	tsk, err = f.tasks.Submit(ctx, worker, tsk.ID, &service.SubmitPayload{
		Notes:        "all vehicles boxed",
		Deliverables: []string{"s3://deliverables/labels.json"},
		ActualHours:  hours,
	})
	require.NoError(t, err)
	return tsk
}

// assertInvariants 检查库中所有任务满足评分、报酬和状态历史的约束
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	page, err := f.query.List(ctx, &repository.TaskFilter{PageSize: 100})
	require.NoError(t, err)

	for _, tsk := range page.Items {
		if tsk.Status == task.StatusApproved {
			require.NotNil(t, tsk.Rating, tsk.ID)
			require.NotNil(t, tsk.ActualHours, tsk.ID)
			assert.Equal(t, task.ComputeEarnings(tsk.HourlyRate, *tsk.ActualHours), tsk.TotalEarnings, tsk.ID)
		} else {
			assert.Nil(t, tsk.Rating, tsk.ID)
			assert.Zero(t, tsk.TotalEarnings, tsk.ID)
		}
		assert.Equal(t, tsk.Status == task.StatusAvailable, len(tsk.AssignedTo) == 0, tsk.ID)

		history, err := f.query.History(ctx, tsk.ID)
		require.NoError(t, err)
		require.NotEmpty(t, history)
		assert.Equal(t, string(task.EventCreate), history[0].Event)
		reachedAssigned := false
		for i, h := range history[1:] {
			assert.Equal(t, history[i].ToStatus, h.FromStatus, "history must be contiguous")
			assert.True(t, task.CanTransition(task.Status(h.FromStatus), task.Status(h.ToStatus)),
				"%s -> %s", h.FromStatus, h.ToStatus)
			if h.ToStatus == string(task.StatusAssigned) {
				reachedAssigned = true
			}
			if h.ToStatus == string(task.StatusUnderReview) {
				assert.True(t, reachedAssigned, "UNDER_REVIEW reached without ASSIGNED")
			}
		}
		assert.Equal(t, string(tsk.Status), history[len(history)-1].ToStatus)
	}
}
