package service

import (
	"context"
	"strings"

	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewOptions 审核参数
type ReviewOptions struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
	Notes    string `json:"notes"`
	// Reopen 驳回后退回给原工作者修改,否则取消任务
	Reopen bool `json:"reopen"`
}

// Review 审核任务
// 通过时计算报酬并累加用户统计,与状态一起原子写入
func (s *taskService) Review(ctx context.Context, reviewerID string, taskID string, action task.ReviewAction, opts *ReviewOptions) (*task.Task, error) {
	if opts == nil {
		opts = &ReviewOptions{}
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusUnderReview {
		return nil, task.NewInvalidState("task %s is %s, only %s tasks can be reviewed", t.ID, t.Status, task.StatusUnderReview)
	}

	switch action {
	case task.ReviewApprove:
		return s.approve(ctx, reviewerID, t, opts)
	case task.ReviewReject:
		return s.reject(ctx, reviewerID, t, opts)
	default:
		return nil, task.NewValidationError("invalid review action", map[string]string{"action": "must be approve or reject"})
	}
}

func (s *taskService) approve(ctx context.Context, reviewerID string, t *task.Task, opts *ReviewOptions) (*task.Task, error) {
	if opts.Rating == nil || *opts.Rating < MinRating || *opts.Rating > MaxRating {
		return nil, task.NewValidationError("invalid rating", map[string]string{"rating": "must be between 1 and 5"})
	}
	to, err := task.Transition(t.Status, task.EventApprove)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hours := 0.0
	if t.ActualHours != nil {
		hours = *t.ActualHours
	}
	rating := *opts.Rating
	earnings := task.ComputeEarnings(t.HourlyRate, hours)
	worker := firstAssignee(t)

	from := t.Status
	t.Status = to
	t.Rating = &rating
	t.Feedback = opts.Feedback
	t.ReviewNotes = opts.Notes
	t.ReviewedBy = reviewerID
	t.ReviewedAt = &now
	t.CompletedAt = &now
	t.TotalEarnings = earnings
	t.UpdatedAt = now

	ch := &repository.Change{
		History: []task.StateChange{stateChange(from, to, task.EventApprove, reviewerID, "", now)},
		Review: &repository.ReviewEntry{
			Reviewer: reviewerID,
			Worker:   worker,
			Action:   task.ReviewApprove,
			Rating:   &rating,
			Feedback: opts.Feedback,
			Earnings: earnings,
		},
	}
	if worker != "" {
		ch.Credit = &repository.UserCredit{
			UserID:   worker,
			Rating:   rating,
			Earnings: earnings,
			Payable:  !t.IsQualityControl,
		}
	}

	notice := newEvent(EventTaskApproved, t, reviewerID, now)
	notice.Recipients = t.AssignedTo
	details := map[string]interface{}{
		"rating":   rating,
		"earnings": earnings,
		"worker":   worker,
	}
	if err := s.save(ctx, reviewerID, "approve", t, ch, details, notice); err != nil {
		return nil, err
	}

	metrics.RecordReview(string(task.ReviewApprove), string(to))
	metrics.RecordEarnings(earnings, !t.IsQualityControl)
	return t, nil
}

func (s *taskService) reject(ctx context.Context, reviewerID string, t *task.Task, opts *ReviewOptions) (*task.Task, error) {
	if strings.TrimSpace(opts.Feedback) == "" {
		return nil, task.NewValidationError("feedback is required", map[string]string{"feedback": "must not be empty when rejecting"})
	}
	rejected, err := task.Transition(t.Status, task.EventReject)
	if err != nil {
		return nil, err
	}
	next := task.EventCancel
	if opts.Reopen {
		next = task.EventReopen
	}
	final, err := task.Transition(rejected, next)
	if err != nil {
		return nil, err
	}

	now := s.now()
	worker := firstAssignee(t)
	history := []task.StateChange{
		stateChange(t.Status, rejected, task.EventReject, reviewerID, opts.Feedback, now),
		stateChange(rejected, final, next, reviewerID, "", now),
	}

	t.Status = final
	t.Rating = nil
	t.TotalEarnings = 0
	t.Feedback = opts.Feedback
	t.ReviewNotes = opts.Notes
	t.ReviewedBy = reviewerID
	t.ReviewedAt = &now
	t.ActualHours = nil
	t.UpdatedAt = now
	if opts.Reopen {
		// 退回修改:清空提交内容,保留分配
		t.SubmissionNotes = ""
		t.SubmissionFiles = nil
		t.SubmittedAt = nil
	}

	ch := &repository.Change{
		History: history,
		Review: &repository.ReviewEntry{
			Reviewer: reviewerID,
			Worker:   worker,
			Action:   task.ReviewReject,
			Feedback: opts.Feedback,
			Reopen:   opts.Reopen,
		},
	}

	notice := newEvent(EventTaskRejected, t, reviewerID, now)
	notice.Recipients = t.AssignedTo
	details := map[string]interface{}{
		"feedback": opts.Feedback,
		"reopen":   opts.Reopen,
		"worker":   worker,
	}
	if err := s.save(ctx, reviewerID, "reject", t, ch, details, notice); err != nil {
		return nil, err
	}

	metrics.RecordReview(string(task.ReviewReject), string(final))
	return t, nil
}

func firstAssignee(t *task.Task) string {
	if len(t.AssignedTo) == 0 {
		return ""
	}
	return t.AssignedTo[0]
}
