package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/catalog"
	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stanondieki/Infera-AI-sub003/internal/utils"
)

const (
	// MaxBulkCount 批量创建的上限
	MaxBulkCount = 50
	// freeformDeadlineDays 无模板任务的默认截止天数
	freeformDeadlineDays = 7
)

// TaskInput 创建任务的输入
// 基于模板创建时,零值字段取模板默认值
type TaskInput struct {
	Category         string             `json:"category"`
	Type             string             `json:"type"`
	Priority         string             `json:"priority"`
	Difficulty       string             `json:"difficulty_level"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Instructions     string             `json:"instructions"`
	Guidelines       string             `json:"guidelines"`
	Inputs           []string           `json:"inputs"`
	ExpectedOutput   string             `json:"expected_output"`
	Requirements     []string           `json:"requirements"`
	Deliverables     []string           `json:"deliverables"`
	QualityMetrics   []string           `json:"quality_metrics"`
	RequiredSkills   []string           `json:"required_skills"`
	CategoryData     *task.CategoryData `json:"category_data"`
	HourlyRate       *float64           `json:"hourly_rate"`
	EstimatedHours   *float64           `json:"estimated_hours"`
	Deadline         *time.Time         `json:"deadline"`
	IsQualityControl *bool              `json:"is_quality_control"`
	AssignedTo       []string           `json:"assigned_to"`
}

// BulkRequest 批量创建请求
type BulkRequest struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Difficulty string `json:"difficulty_level"`
}

// CreateFromTemplate 合并模板默认值和调用方覆盖值后创建任务
func (s *taskService) CreateFromTemplate(ctx context.Context, actor string, templateID string, in *TaskInput) (*task.Task, error) {
	tpl, err := catalog.Get(templateID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = &TaskInput{}
	}
	t, err := s.build(ctx, actor, &tpl, in)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateFreeform 不使用模板创建任务
func (s *taskService) CreateFreeform(ctx context.Context, actor string, in *TaskInput) (*task.Task, error) {
	if in == nil {
		in = &TaskInput{}
	}
	t, err := s.build(ctx, actor, nil, in)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateBulk 按类别模板批量生成任务
// 每个任务独立写入,部分失败时返回 PartialFailure,其中带有已创建的任务
func (s *taskService) CreateBulk(ctx context.Context, actor string, req *BulkRequest) ([]*task.Task, error) {
	if req == nil {
		req = &BulkRequest{}
	}
	errs := task.FieldErrors{}
	if req.Count < 1 || req.Count > MaxBulkCount {
		errs.Add("count", fmt.Sprintf("must be between 1 and %d", MaxBulkCount))
	}
	category, ok := task.ParseCategory(req.Category)
	if !ok {
		errs.Add("category", fmt.Sprintf("unknown category %q", req.Category))
	}
	if req.Difficulty != "" {
		if _, ok := task.ParseDifficulty(req.Difficulty); !ok {
			errs.Add("difficulty_level", fmt.Sprintf("unknown difficulty %q", req.Difficulty))
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	tpl, err := catalog.Get(string(category))
	if err != nil {
		return nil, err
	}

	created := make([]*task.Task, 0, req.Count)
	var failures []task.ItemError
	for i := 0; i < req.Count; i++ {
		t, err := s.build(ctx, actor, &tpl, bulkInput(tpl, req.Difficulty, i))
		if err == nil {
			err = s.persist(ctx, actor, t)
		}
		if err != nil {
			failures = append(failures, itemError(i, err))
			continue
		}
		created = append(created, t)
	}

	if len(failures) > 0 {
		logrus.WithFields(logrus.Fields{
			"category": category,
			"created":  len(created),
			"failed":   len(failures),
			"actor":    actor,
		}).Warn("bulk task creation partially failed")
		return created, task.NewPartialFailure(created, failures)
	}
	return created, nil
}

// bulkInput 轮流使用模板示例生成第 i 个任务的内容
func bulkInput(tpl catalog.Template, difficulty string, i int) *TaskInput {
	in := &TaskInput{Difficulty: difficulty}
	title := tpl.Name
	if len(tpl.Examples) > 0 {
		ex := tpl.Examples[i%len(tpl.Examples)]
		title = tpl.Name + ": " + ex.Title
		in.Inputs = ex.Inputs
		in.ExpectedOutput = ex.ExpectedOutput
		data := ex.CategoryData
		in.CategoryData = &data
	}
	in.Title = fmt.Sprintf("%s #%d", title, i+1)
	return in
}

func itemError(index int, err error) task.ItemError {
	item := task.ItemError{Index: index, Message: err.Error()}
	var e *task.Error
	if errors.As(err, &e) {
		item.Kind = e.Kind
		item.Message = e.Message
		item.Fields = e.Fields
	}
	return item
}

// build 组装并校验任务,不做任何写入
func (s *taskService) build(ctx context.Context, actor string, tpl *catalog.Template, in *TaskInput) (*task.Task, error) {
	now := s.now()
	errs := task.FieldErrors{}

	t := &task.Task{
		ID:        uuid.New().String(),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
		Priority:  task.PriorityMedium,
		// 无模板时的默认难度
		Difficulty: task.DifficultyBeginner,
	}
	deadlineDays := freeformDeadlineDays

	if tpl != nil {
		applyDefaults(t, tpl)
		if tpl.Defaults.DeadlineDays > 0 {
			deadlineDays = tpl.Defaults.DeadlineDays
		}
		if in.Category != "" {
			if c, ok := task.ParseCategory(in.Category); !ok || c != tpl.Category {
				errs.Add("category", fmt.Sprintf("does not match template %s", tpl.ID))
			}
		}
	} else {
		c, ok := task.ParseCategory(in.Category)
		if !ok {
			errs.Add("category", fmt.Sprintf("unknown category %q", in.Category))
		}
		t.Category = c
	}
	t.Deadline = now.AddDate(0, 0, deadlineDays)

	applyOverrides(t, in, errs)

	assignees := utils.DedupeIDs(in.AssignedTo)
	if err := s.checkAssignees(ctx, assignees, errs); err != nil {
		return nil, err
	}
	t.AssignedTo = assignees
	t.Status = task.StatusAvailable
	if len(assignees) > 0 {
		t.Status = task.StatusAssigned
	}

	for field, msg := range task.Validate(t) {
		errs.Add(field, msg)
	}
	if tpl != nil {
		catalog.CheckRequired(*tpl, t, errs)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func applyDefaults(t *task.Task, tpl *catalog.Template) {
	d := tpl.Defaults
	t.TemplateID = tpl.ID
	t.Category = tpl.Category
	t.Type = d.Type
	t.Priority = d.Priority
	t.Difficulty = d.Difficulty
	t.HourlyRate = d.HourlyRate
	t.EstimatedHours = d.EstimatedHours
	t.Description = d.Description
	t.Instructions = d.Instructions
	t.Guidelines = d.Guidelines
	t.Requirements = append([]string(nil), d.Requirements...)
	t.Deliverables = append([]string(nil), d.Deliverables...)
	t.QualityMetrics = append([]string(nil), d.QualityMetrics...)
	t.RequiredSkills = append([]string(nil), d.RequiredSkills...)
	t.IsQualityControl = d.IsQualityControl
}

func applyOverrides(t *task.Task, in *TaskInput, errs task.FieldErrors) {
	if in.Type != "" {
		t.Type = in.Type
	}
	if in.Priority != "" {
		if p, ok := task.ParsePriority(in.Priority); ok {
			t.Priority = p
		} else {
			errs.Add("priority", fmt.Sprintf("unknown priority %q", in.Priority))
		}
	}
	if in.Difficulty != "" {
		if d, ok := task.ParseDifficulty(in.Difficulty); ok {
			t.Difficulty = d
		} else {
			errs.Add("difficulty_level", fmt.Sprintf("unknown difficulty %q", in.Difficulty))
		}
	}
	if in.Title != "" {
		t.Title = in.Title
	}
	if in.Description != "" {
		t.Description = in.Description
	}
	if in.Instructions != "" {
		t.Instructions = in.Instructions
	}
	if in.Guidelines != "" {
		t.Guidelines = in.Guidelines
	}
	if in.ExpectedOutput != "" {
		t.ExpectedOutput = in.ExpectedOutput
	}
	if in.Inputs != nil {
		t.Inputs = task.NonBlank(in.Inputs)
	}
	if in.Requirements != nil {
		t.Requirements = task.NonBlank(in.Requirements)
	}
	if in.Deliverables != nil {
		t.Deliverables = task.NonBlank(in.Deliverables)
	}
	if in.QualityMetrics != nil {
		t.QualityMetrics = task.NonBlank(in.QualityMetrics)
	}
	if in.RequiredSkills != nil {
		t.RequiredSkills = task.NonBlank(in.RequiredSkills)
	}
	if in.CategoryData != nil {
		t.CategoryData = *in.CategoryData
	}
	if in.HourlyRate != nil {
		t.HourlyRate = *in.HourlyRate
	}
	if in.EstimatedHours != nil {
		t.EstimatedHours = *in.EstimatedHours
	}
	if in.Deadline != nil {
		t.Deadline = in.Deadline.UTC()
	}
	if in.IsQualityControl != nil {
		t.IsQualityControl = *in.IsQualityControl
	}
}

// checkAssignees 校验用户存在且处于启用状态
// 不存在返回 NotFound,未启用记为字段错误
func (s *taskService) checkAssignees(ctx context.Context, ids []string, errs task.FieldErrors) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if err := utils.ValidateUserID(id); err != nil {
			errs.Add("assigned_to", fmt.Sprintf("invalid user id %q: %v", id, err))
			return nil
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	active := make(map[string]bool, len(users))
	for _, u := range users {
		active[u.ID] = u.Active
	}
	for _, id := range ids {
		isActive, exists := active[id]
		if !exists {
			return task.NewNotFound("user", id)
		}
		if !isActive {
			errs.Add("assigned_to", fmt.Sprintf("user %s is not active", id))
		}
	}
	return nil
}

// persist 写入新任务及其初始历史
func (s *taskService) persist(ctx context.Context, actor string, t *task.Task) error {
	history := []task.StateChange{
		stateChange("", task.StatusAvailable, task.EventCreate, actor, "", t.CreatedAt),
	}
	if t.Status == task.StatusAssigned {
		history = append(history, stateChange(task.StatusAvailable, task.StatusAssigned, task.EventAssign, actor, "assigned on creation", t.CreatedAt))
	}
	if err := s.taskRepo.Create(ctx, t, history); err != nil {
		return err
	}

	metrics.RecordTaskCreated(string(t.Category))
	logrus.WithFields(logrus.Fields{
		"task_id":  t.ID,
		"category": t.Category,
		"status":   t.Status,
		"actor":    actor,
	}).Info("task created")
	recordAudit(ctx, s.auditLogSvc, actor, "create", t.ID, map[string]interface{}{
		"template_id": t.TemplateID,
		"category":    t.Category,
		"assigned_to": t.AssignedTo,
	})

	event := newEvent(EventTaskCreated, t, actor, t.CreatedAt)
	event.Recipients = t.AssignedTo
	if len(t.AssignedTo) > 0 {
		event.Type = EventTaskAssigned
	}
	s.notifier.Notify(ctx, event)
	return nil
}
