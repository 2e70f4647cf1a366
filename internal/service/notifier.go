package service

import (
	"context"
	"time"

	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// 任务事件类型
const (
	EventTaskCreated    = "task.created"
	EventTaskAssigned   = "task.assigned"
	EventTaskUnassigned = "task.unassigned"
	EventTaskStarted    = "task.started"
	EventTaskSubmitted  = "task.submitted"
	EventTaskApproved   = "task.approved"
	EventTaskRejected   = "task.rejected"
)

// TaskEvent 推送给用户的任务事件
type TaskEvent struct {
	Type   string      `json:"type"`
	TaskID string      `json:"task_id"`
	Title  string      `json:"title"`
	Status task.Status `json:"status"`
	Actor  string      `json:"actor"`
	Time   time.Time   `json:"time"`
	// Recipients 接收事件的用户
	Recipients []string `json:"-"`
	// ToAdmins 同时推送给所有在线管理员
	ToAdmins bool `json:"-"`
}

// Notifier 任务事件通知接口,实现方不能阻塞调用方
type Notifier interface {
	Notify(ctx context.Context, event *TaskEvent)
}

// noopNotifier 不推送任何事件
type noopNotifier struct{}

// NewNoopNotifier 创建空通知器
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, *TaskEvent) {}

func newEvent(eventType string, t *task.Task, actor string, at time.Time) *TaskEvent {
	return &TaskEvent{
		Type:   eventType,
		TaskID: t.ID,
		Title:  t.Title,
		Status: t.Status,
		Actor:  actor,
		Time:   at,
	}
}
