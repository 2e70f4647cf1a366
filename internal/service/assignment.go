package service

import (
	"context"

	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stanondieki/Infera-AI-sub003/internal/utils"
)

// Assign 用给定用户集合覆盖任务的分配列表
// 集合为空时任务回到 AVAILABLE;与当前集合相同时只更新 updatedAt
func (s *taskService) Assign(ctx context.Context, actor string, taskID string, userIDs []string) (*task.Task, error) {
	return s.setAssignees(ctx, actor, taskID, utils.DedupeIDs(userIDs), "assign")
}

// Unassign 清空分配列表,任务回到 AVAILABLE
func (s *taskService) Unassign(ctx context.Context, actor string, taskID string) (*task.Task, error) {
	return s.setAssignees(ctx, actor, taskID, nil, "unassign")
}

func (s *taskService) setAssignees(ctx context.Context, actor, taskID string, ids []string, action string) (*task.Task, error) {
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusAvailable && t.Status != task.StatusAssigned {
		return nil, task.NewInvalidState("cannot %s task %s in status %s", action, t.ID, t.Status)
	}

	errs := task.FieldErrors{}
	if err := s.checkAssignees(ctx, ids, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	if sameSet(t.AssignedTo, ids) {
		// 幂等:不写历史、不发通知、不记审计
		t.UpdatedAt = now
		if err := s.taskRepo.Update(ctx, t, nil); err != nil {
			return nil, mapStoreError(err)
		}
		return t, nil
	}

	event := task.EventAssign
	if len(ids) == 0 {
		event = task.EventUnassign
	}
	from := t.Status
	to, err := task.Transition(from, event)
	if err != nil {
		return nil, err
	}

	previous := t.AssignedTo
	t.AssignedTo = ids
	t.Status = to
	t.UpdatedAt = now

	ch := &repository.Change{
		History: []task.StateChange{stateChange(from, to, event, actor, "", now)},
	}
	details := map[string]interface{}{
		"previous":    previous,
		"assigned_to": ids,
	}

	notice := newEvent(EventTaskAssigned, t, actor, now)
	notice.Recipients = ids
	if len(ids) == 0 {
		notice.Type = EventTaskUnassigned
		notice.Recipients = previous
	}

	if err := s.save(ctx, actor, action, t, ch, details, notice); err != nil {
		return nil, err
	}
	return t, nil
}

// Start 工作者开始处理任务
// 多人候选的任务由第一个开始的工作者认领,其余候选人被移除
func (s *taskService) Start(ctx context.Context, workerID string, taskID string) (*task.Task, error) {
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsAssignee(workerID) {
		return nil, task.NewForbidden("user %s is not assigned to task %s", workerID, t.ID)
	}
	from := t.Status
	to, err := task.Transition(from, task.EventStart)
	if err != nil {
		return nil, err
	}

	now := s.now()
	released := others(t.AssignedTo, workerID)
	t.AssignedTo = []string{workerID}
	t.Status = to
	t.StartedAt = &now
	t.UpdatedAt = now

	ch := &repository.Change{
		History: []task.StateChange{stateChange(from, to, task.EventStart, workerID, "", now)},
	}
	notice := newEvent(EventTaskStarted, t, workerID, now)
	notice.Recipients = released
	notice.ToAdmins = true

	if err := s.save(ctx, workerID, "start", t, ch, map[string]interface{}{"released": released}, notice); err != nil {
		return nil, err
	}
	return t, nil
}

// sameSet 判断两个 ID 列表是否包含相同的元素
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}

func others(ids []string, keep string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != keep {
			out = append(out, id)
		}
	}
	return out
}
