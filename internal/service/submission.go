package service

import (
	"context"

	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// SubmitPayload 提交内容,文件为外部存储的引用
type SubmitPayload struct {
	Notes        string   `json:"notes"`
	Deliverables []string `json:"deliverables"`
	ActualHours  float64  `json:"actual_hours"`
}

// Submit 工作者提交任务进入审核队列
// 检查顺序: NotFound, Forbidden, InvalidState, ValidationError
func (s *taskService) Submit(ctx context.Context, workerID string, taskID string, payload *SubmitPayload) (*task.Task, error) {
	if payload == nil {
		payload = &SubmitPayload{}
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsAssignee(workerID) {
		return nil, task.NewForbidden("user %s is not assigned to task %s", workerID, t.ID)
	}
	if t.Status != task.StatusAssigned && t.Status != task.StatusInProgress {
		return nil, task.NewInvalidState("cannot submit task %s in status %s", t.ID, t.Status)
	}

	files := task.NonBlank(payload.Deliverables)
	errs := task.FieldErrors{}
	if payload.ActualHours <= 0 {
		errs.Add("actual_hours", "must be greater than 0")
	}
	if len(files) == 0 {
		errs.Add("deliverables", "at least one deliverable is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var history []task.StateChange
	if t.Status == task.StatusAssigned {
		// 未开始直接提交,视为先认领再提交
		history = append(history, stateChange(task.StatusAssigned, task.StatusInProgress, task.EventStart, workerID, "implicit start on submit", now))
		t.Status = task.StatusInProgress
		t.StartedAt = &now
	}
	to, err := task.Transition(t.Status, task.EventSubmit)
	if err != nil {
		return nil, err
	}
	history = append(history, stateChange(t.Status, to, task.EventSubmit, workerID, "", now))

	hours := payload.ActualHours
	t.AssignedTo = []string{workerID}
	t.SubmissionNotes = payload.Notes
	t.SubmissionFiles = files
	t.ActualHours = &hours
	t.SubmittedAt = &now
	t.Status = to
	t.UpdatedAt = now

	notice := newEvent(EventTaskSubmitted, t, workerID, now)
	notice.ToAdmins = true
	details := map[string]interface{}{
		"actual_hours": hours,
		"deliverables": len(files),
	}
	if err := s.save(ctx, workerID, "submit", t, &repository.Change{History: history}, details, notice); err != nil {
		return nil, err
	}
	return t, nil
}
