package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// TaskService 任务生命周期服务接口
// 每个写操作都显式接收操作人 ID
type TaskService interface {
	// 创建
	CreateFromTemplate(ctx context.Context, actor string, templateID string, in *TaskInput) (*task.Task, error)
	CreateFreeform(ctx context.Context, actor string, in *TaskInput) (*task.Task, error)
	CreateBulk(ctx context.Context, actor string, req *BulkRequest) ([]*task.Task, error)
	// 分配
	Assign(ctx context.Context, actor string, taskID string, userIDs []string) (*task.Task, error)
	Unassign(ctx context.Context, actor string, taskID string) (*task.Task, error)
	Start(ctx context.Context, workerID string, taskID string) (*task.Task, error)
	// 提交与审核
	Submit(ctx context.Context, workerID string, taskID string, payload *SubmitPayload) (*task.Task, error)
	Review(ctx context.Context, reviewerID string, taskID string, action task.ReviewAction, opts *ReviewOptions) (*task.Task, error)
}

// Option 任务服务可选项
type Option func(*taskService)

// WithNotifier 设置事件通知器
func WithNotifier(n Notifier) Option {
	return func(s *taskService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock 设置时钟,测试中固定时间
func WithClock(now func() time.Time) Option {
	return func(s *taskService) {
		s.now = now
	}
}

// taskService 任务服务实现
type taskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	auditLogSvc AuditLogService
	notifier    Notifier
	now         func() time.Time
}

// NewTaskService 创建任务服务
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	auditLogSvc AuditLogService,
	opts ...Option,
) TaskService {
	s := &taskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		auditLogSvc: auditLogSvc,
		notifier:    NewNoopNotifier(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// save 以乐观锁写入任务,成功后记录指标、日志、审计并推送事件
func (s *taskService) save(ctx context.Context, actor, action string, t *task.Task, change *repository.Change, details interface{}, event *TaskEvent) error {
	if err := s.taskRepo.Update(ctx, t, change); err != nil {
		err = mapStoreError(err)
		if task.IsKind(err, task.KindInvalidState) {
			logrus.WithFields(logrus.Fields{
				"task_id": t.ID,
				"action":  action,
				"actor":   actor,
			}).Warn("task write lost version check")
		}
		return err
	}

	metrics.RecordTransition(action)
	if change != nil {
		for _, c := range change.History {
			logrus.WithFields(logrus.Fields{
				"task_id": t.ID,
				"from":    c.From,
				"to":      c.To,
				"event":   c.Event,
				"actor":   actor,
			}).Info("task state changed")
		}
	}
	recordAudit(ctx, s.auditLogSvc, actor, action, t.ID, details)
	if event != nil {
		s.notifier.Notify(ctx, event)
	}
	return nil
}

// stateChange 构造一条状态变更记录
func stateChange(from, to task.Status, event task.Event, actor, reason string, at time.Time) task.StateChange {
	return task.StateChange{
		From:     from,
		To:       to,
		Event:    event,
		Reason:   reason,
		Operator: actor,
		Time:     at,
	}
}
