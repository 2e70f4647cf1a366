package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stanondieki/Infera-AI-sub003/internal/utils"
	"gorm.io/gorm"
)

// ErrOptimisticLock 任务已被其他请求修改
var ErrOptimisticLock = errors.New("optimistic lock conflict")

// TaskRepository 任务仓储接口
type TaskRepository interface {
	Create(ctx context.Context, t *task.Task, history []task.StateChange) error
	FindByID(ctx context.Context, id string) (*task.Task, error)
	FindByFilter(ctx context.Context, filter *TaskFilter) ([]*task.Task, int64, error)
	Update(ctx context.Context, t *task.Task, change *Change) error

	CountByStatus(ctx context.Context) (map[task.Status]int64, error)
	CountByCategory(ctx context.Context) (map[task.Category]int64, error)
	CountByPriority(ctx context.Context) (map[task.Priority]int64, error)
	SumValues(ctx context.Context) (*ValueTotals, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
	AssigneeStats(ctx context.Context) ([]*AssigneeStat, error)

	// OnWrite 注册写入监听,任务创建或更新成功后回调
	OnWrite(listener func(taskID string))
}

// TaskFilter 任务查询过滤器
type TaskFilter struct {
	Statuses         []task.Status
	Category         *task.Category
	Priority         *task.Priority
	Assignee         *string
	Search           string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	IsQualityControl *bool
	Page             int
	PageSize         int
	SortBy           string
	Order            string
}

// Change 与任务行一起原子写入的附属记录
type Change struct {
	History []task.StateChange
	Review  *ReviewEntry
	Credit  *UserCredit
}

// ReviewEntry 审核记录
type ReviewEntry struct {
	Reviewer string
	Worker   string
	Action   task.ReviewAction
	Rating   *int
	Feedback string
	Reopen   bool
	Earnings float64
}

// UserCredit 审核通过后给用户累加的计数
type UserCredit struct {
	UserID   string
	Rating   int
	Earnings float64
	// Payable 为 false 时不计入用户可支付收入(质检任务)
	Payable bool
}

// ValueTotals 金额汇总
type ValueTotals struct {
	TotalValue    float64
	RealizedValue float64
	PayableValue  float64
}

// AssigneeStat 按用户统计
type AssigneeStat struct {
	UserID    string
	Assigned  int64
	Completed int64
	Earnings  float64
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// taskRepository 任务仓储实现
type taskRepository struct {
	db        *gorm.DB
	mu        sync.RWMutex
	listeners []func(taskID string)
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// OnWrite 注册写入监听
func (r *taskRepository) OnWrite(listener func(taskID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *taskRepository) notify(taskID string) {
	r.mu.RLock()
	listeners := make([]func(string), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()
	for _, l := range listeners {
		l(taskID)
	}
}

// Create 保存新任务
func (r *taskRepository) Create(ctx context.Context, t *task.Task, history []task.StateChange) error {
	if t.Version == 0 {
		t.Version = 1
	}
	row, err := toTaskModel(t)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := replaceAssignees(tx, t.ID, t.AssignedTo); err != nil {
			return err
		}
		return appendHistory(tx, t.ID, history)
	})
	if err != nil {
		return err
	}

	r.notify(t.ID)
	return nil
}

// FindByID 根据 ID 查找任务
func (r *taskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	var row model.TaskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.NewNotFound("task", id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return fromTaskModel(&row)
}

// FindByFilter 根据过滤器查找任务,返回当前页和总数
func (r *taskRepository) FindByFilter(ctx context.Context, filter *TaskFilter) ([]*task.Task, int64, error) {
	if filter == nil {
		filter = &TaskFilter{}
	}
	query := r.db.WithContext(ctx).Model(&model.TaskModel{})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", string(*filter.Priority))
	}
	if filter.Assignee != nil {
		query = query.Where("id IN (?)",
			r.db.Model(&model.TaskAssigneeModel{}).Select("task_id").Where("user_id = ?", *filter.Assignee))
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := utils.LikePattern(filter.Search)
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.IsQualityControl != nil {
		query = query.Where("is_quality_control = ?", *filter.IsQualityControl)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	// 排序字段走白名单,防止 SQL 注入
	sortBy := strings.ToLower(filter.SortBy)
	if sortBy == "" {
		sortBy = "created_at"
	}
	if err := utils.ValidateSortField(sortBy); err != nil {
		return nil, 0, task.NewValidationError("invalid sort field", map[string]string{"sort_by": err.Error()})
	}
	order := filter.Order
	if order == "" {
		order = "desc"
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, 0, task.NewValidationError("invalid sort order", map[string]string{"order": err.Error()})
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, utils.SanitizeSortOrder(order))).Order("id ASC")

	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var rows []model.TaskModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}

	// 直接反序列化,避免 N+1 查询
	tasks := make([]*task.Task, 0, len(rows))
	for i := range rows {
		t, err := fromTaskModel(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, nil
}

// Update 以版本号做比较并交换,连同附属记录在一个事务中写入
// 版本号不匹配时返回 ErrOptimisticLock,调用方的任务对象保持不变
func (r *taskRepository) Update(ctx context.Context, t *task.Task, change *Change) error {
	expected := t.Version
	next := t.Clone()
	next.Version = expected + 1
	row, err := toTaskModel(next)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.TaskModel{}).
			Where("id = ? AND version = ?", t.ID, expected).
			Updates(map[string]interface{}{
				"status":             row.Status,
				"priority":           row.Priority,
				"difficulty":         row.Difficulty,
				"title":              row.Title,
				"description":        row.Description,
				"hourly_rate":        row.HourlyRate,
				"estimated_hours":    row.EstimatedHours,
				"total_earnings":     row.TotalEarnings,
				"is_quality_control": row.IsQualityControl,
				"data":               row.Data,
				"version":            row.Version,
				"deadline":           row.Deadline,
				"updated_at":         row.UpdatedAt,
				"submitted_at":       row.SubmittedAt,
				"completed_at":       row.CompletedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		if err := replaceAssignees(tx, t.ID, t.AssignedTo); err != nil {
			return err
		}
		if change == nil {
			return nil
		}
		if err := appendHistory(tx, t.ID, change.History); err != nil {
			return err
		}
		if change.Review != nil {
			if err := insertReview(tx, t.ID, change.Review, t.UpdatedAt); err != nil {
				return err
			}
		}
		if change.Credit != nil {
			if err := creditUser(tx, change.Credit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.Version = next.Version
	r.notify(t.ID)
	return nil
}

// CountByStatus 按状态统计
func (r *taskRepository) CountByStatus(ctx context.Context) (map[task.Status]int64, error) {
	counts, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[task.Status]int64, len(counts))
	for k, v := range counts {
		out[task.Status(k)] = v
	}
	return out, nil
}

// CountByCategory 按类别统计
func (r *taskRepository) CountByCategory(ctx context.Context) (map[task.Category]int64, error) {
	counts, err := r.countBy(ctx, "category")
	if err != nil {
		return nil, err
	}
	out := make(map[task.Category]int64, len(counts))
	for k, v := range counts {
		out[task.Category(k)] = v
	}
	return out, nil
}

// CountByPriority 按优先级统计
func (r *taskRepository) CountByPriority(ctx context.Context) (map[task.Priority]int64, error) {
	counts, err := r.countBy(ctx, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[task.Priority]int64, len(counts))
	for k, v := range counts {
		out[task.Priority(k)] = v
	}
	return out, nil
}

func (r *taskRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	var results []struct {
		Grp   string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.TaskModel{}).
		Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by %s: %w", column, err)
	}
	out := make(map[string]int64, len(results))
	for _, res := range results {
		out[res.Grp] = res.Count
	}
	return out, nil
}

// SumValues 汇总任务标价、已结算金额和可支付金额
func (r *taskRepository) SumValues(ctx context.Context) (*ValueTotals, error) {
	var totals struct {
		TotalValue    float64
		RealizedValue float64
		PayableValue  float64
	}
	err := r.db.WithContext(ctx).Model(&model.TaskModel{}).
		Select(`COALESCE(SUM(hourly_rate * estimated_hours), 0) AS total_value,
			COALESCE(SUM(total_earnings), 0) AS realized_value,
			COALESCE(SUM(CASE WHEN is_quality_control = ? THEN 0 ELSE total_earnings END), 0) AS payable_value`, true).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum task values: %w", err)
	}
	return &ValueTotals{
		TotalValue:    task.Round2(totals.TotalValue),
		RealizedValue: task.Round2(totals.RealizedValue),
		PayableValue:  task.Round2(totals.PayableValue),
	}, nil
}

// CountCreatedSince 统计某时间之后创建的任务数
func (r *taskRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskModel{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count created tasks: %w", err)
	}
	return count, nil
}

// CountCompletedSince 统计某时间之后审核通过的任务数
func (r *taskRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskModel{}).
		Where("status = ? AND completed_at >= ?", string(task.StatusApproved), since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return count, nil
}

// AssigneeStats 按用户统计分配数、完成数和可支付收入
func (r *taskRepository) AssigneeStats(ctx context.Context) ([]*AssigneeStat, error) {
	var results []*AssigneeStat
	err := r.db.WithContext(ctx).
		Table("task_assignees AS ta").
		Select(`ta.user_id AS user_id,
			COUNT(*) AS assigned,
			COALESCE(SUM(CASE WHEN t.status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN t.status = ? AND t.is_quality_control = ? THEN t.total_earnings ELSE 0 END), 0) AS earnings`,
			string(task.StatusApproved), string(task.StatusApproved), false).
		Joins("JOIN tasks AS t ON t.id = ta.task_id").
		Group("ta.user_id").
		Order("ta.user_id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assignee stats: %w", err)
	}
	for _, s := range results {
		s.Earnings = task.Round2(s.Earnings)
	}
	return results, nil
}

func replaceAssignees(tx *gorm.DB, taskID string, userIDs []string) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskAssigneeModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear assignees: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]model.TaskAssigneeModel, 0, len(userIDs))
	for i, id := range userIDs {
		rows = append(rows, model.TaskAssigneeModel{TaskID: taskID, UserID: id, Position: i})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save assignees: %w", err)
	}
	return nil
}

func appendHistory(tx *gorm.DB, taskID string, changes []task.StateChange) error {
	if len(changes) == 0 {
		return nil
	}
	var seq int64
	if err := tx.Model(&model.StateHistoryModel{}).Where("task_id = ?", taskID).Count(&seq).Error; err != nil {
		return fmt.Errorf("failed to count state history: %w", err)
	}
	rows := make([]model.StateHistoryModel, 0, len(changes))
	for i, c := range changes {
		rows = append(rows, model.StateHistoryModel{
			ID:         uuid.New().String(),
			TaskID:     taskID,
			Sequence:   int(seq) + i + 1,
			FromStatus: string(c.From),
			ToStatus:   string(c.To),
			Event:      string(c.Event),
			Reason:     c.Reason,
			Operator:   c.Operator,
			CreatedAt:  c.Time,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save state history: %w", err)
	}
	return nil
}

func insertReview(tx *gorm.DB, taskID string, e *ReviewEntry, at time.Time) error {
	record := &model.ReviewRecordModel{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Reviewer:  e.Reviewer,
		Worker:    e.Worker,
		Action:    string(e.Action),
		Rating:    e.Rating,
		Feedback:  e.Feedback,
		Reopen:    e.Reopen,
		Earnings:  e.Earnings,
		CreatedAt: at,
	}
	if err := tx.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save review record: %w", err)
	}
	return nil
}

// creditUser 累加完成数、滚动平均评分和可支付收入
// SET 子句右侧读取的都是更新前的值
func creditUser(tx *gorm.DB, c *UserCredit) error {
	earnings := 0.0
	if c.Payable {
		earnings = c.Earnings
	}
	res := tx.Model(&model.UserModel{}).
		Where("id = ?", c.UserID).
		Updates(map[string]interface{}{
			"completed_tasks": gorm.Expr("completed_tasks + 1"),
			"rating":          gorm.Expr("(rating * completed_tasks + ?) / (completed_tasks + 1)", float64(c.Rating)),
			"total_earnings":  gorm.Expr("total_earnings + ?", earnings),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit user: %w", res.Error)
	}
	// 用户行缺失时整笔审核回滚,收入不能无处记账
	if res.RowsAffected == 0 {
		return task.NewNotFound("user", c.UserID)
	}
	return nil
}

// NormalizePage 规范化分页参数,页大小默认 20,最大 100
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func toTaskModel(t *task.Task) (*model.TaskModel, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task: %w", err)
	}
	return &model.TaskModel{
		ID:               t.ID,
		TemplateID:       t.TemplateID,
		Category:         string(t.Category),
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Difficulty:       string(t.Difficulty),
		Title:            t.Title,
		Description:      t.Description,
		HourlyRate:       t.HourlyRate,
		EstimatedHours:   t.EstimatedHours,
		TotalEarnings:    t.TotalEarnings,
		IsQualityControl: t.IsQualityControl,
		Data:             data,
		Version:          t.Version,
		Deadline:         t.Deadline,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		SubmittedAt:      t.SubmittedAt,
		CompletedAt:      t.CompletedAt,
		CreatedBy:        t.CreatedBy,
	}, nil
}

func fromTaskModel(row *model.TaskModel) (*task.Task, error) {
	var t task.Task
	if err := json.Unmarshal(row.Data, &t); err != nil {
		return nil, fmt.Errorf("failed to deserialize task %s: %w", row.ID, err)
	}
	// 以列上的版本号为准
	t.Version = row.Version
	return &t, nil
}
