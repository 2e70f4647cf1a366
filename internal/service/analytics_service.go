package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/cache"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

const (
	summaryCacheKey = "analytics:summary"
	// summaryGenerationKey 任务写入代数,汇总按代数分键缓存
	summaryGenerationKey = "analytics:generation"
	// ActivityWindowDays 近期活动统计窗口
	ActivityWindowDays = 7
)

// AnalyticsService 统计服务接口
type AnalyticsService interface {
	Summary(ctx context.Context) (*Summary, error)
}

// Summary 任务统计汇总
type Summary struct {
	TotalTasks        int64                   `json:"total_tasks"`
	StatusCounts      map[task.Status]int64   `json:"status_counts"`
	CategoryCounts    map[task.Category]int64 `json:"category_counts"`
	PriorityCounts    map[task.Priority]int64 `json:"priority_counts"`
	TotalValue        float64                 `json:"total_value"`
	RealizedValue     float64                 `json:"realized_value"`
	PayableValue      float64                 `json:"payable_value"`
	ReviewQueueLength int64                   `json:"review_queue_length"`
	Users             []*UserCompletion       `json:"users"`
	RecentActivity    Activity                `json:"recent_activity"`
	GeneratedAt       time.Time               `json:"generated_at"`
}

// UserCompletion 用户完成情况
type UserCompletion struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name,omitempty"`
	Assigned       int64   `json:"assigned"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
	Earnings       float64 `json:"earnings"`
	Rating         float64 `json:"rating"`
}

// Activity 近期创建与完成数
type Activity struct {
	WindowDays int       `json:"window_days"`
	Since      time.Time `json:"since"`
	Created    int64     `json:"created"`
	Completed  int64     `json:"completed"`
}

// analyticsService 统计服务实现,自身不保存状态
type analyticsService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	cache    cache.Cache
	now      func() time.Time
}

// NewAnalyticsService 创建统计服务
// summaryCache 可以为 nil;不为 nil 时每次任务写入都会让缓存失效
func NewAnalyticsService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, summaryCache cache.Cache) AnalyticsService {
	s := &analyticsService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cache:    summaryCache,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if summaryCache != nil {
		taskRepo.OnWrite(s.invalidate)
	}
	return s
}

// invalidate 推进写入代数,之前计算的汇总都不会再被读到
func (s *analyticsService) invalidate(taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	gen, err := s.cache.Incr(ctx, summaryGenerationKey)
	if err != nil {
		logrus.WithError(err).WithField("task_id", taskID).Warn("failed to invalidate analytics cache")
		return
	}
	if err := s.cache.Delete(ctx, summaryKey(gen-1)); err != nil {
		logrus.WithError(err).WithField("task_id", taskID).Debug("failed to drop previous analytics summary")
	}
}

func summaryKey(gen int64) string {
	return summaryCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// generation 读取当前写入代数,从未写入时为 0
func (s *analyticsService) generation(ctx context.Context) (int64, error) {
	raw, ok, err := s.cache.Get(ctx, summaryGenerationKey)
	if err != nil || !ok {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// Summary 返回统计汇总,缓存未命中时从任务表重新计算
// 计算前先读代数:计算期间发生的写入会推进代数,结果只写到旧键上
func (s *analyticsService) Summary(ctx context.Context) (*Summary, error) {
	if s.cache == nil {
		return s.compute(ctx)
	}

	gen, err := s.generation(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to read analytics cache")
		return s.compute(ctx)
	}
	key := summaryKey(gen)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		logrus.WithError(err).Warn("failed to read analytics cache")
	} else if ok {
		var cached Summary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			logrus.WithError(err).Warn("failed to write analytics cache")
		}
	}
	return summary, nil
}

func (s *analyticsService) compute(ctx context.Context) (*Summary, error) {
	now := s.now()
	summary := &Summary{
		StatusCounts:   make(map[task.Status]int64, len(task.Statuses)),
		CategoryCounts: make(map[task.Category]int64, len(task.Categories)),
		PriorityCounts: make(map[task.Priority]int64, len(task.Priorities)),
		Users:          []*UserCompletion{},
		GeneratedAt:    now,
	}

	// 所有枚举值都出现在结果中,没有任务的记为 0
	byStatus, err := s.taskRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range task.Statuses {
		summary.StatusCounts[st] = byStatus[st]
		summary.TotalTasks += byStatus[st]
	}
	summary.ReviewQueueLength = byStatus[task.StatusUnderReview]

	byCategory, err := s.taskRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range task.Categories {
		summary.CategoryCounts[c] = byCategory[c]
	}

	byPriority, err := s.taskRepo.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range task.Priorities {
		summary.PriorityCounts[p] = byPriority[p]
	}

	values, err := s.taskRepo.SumValues(ctx)
	if err != nil {
		return nil, err
	}
	summary.TotalValue = values.TotalValue
	summary.RealizedValue = values.RealizedValue
	summary.PayableValue = values.PayableValue

	since := now.AddDate(0, 0, -ActivityWindowDays)
	summary.RecentActivity = Activity{WindowDays: ActivityWindowDays, Since: since}
	if summary.RecentActivity.Created, err = s.taskRepo.CountCreatedSince(ctx, since); err != nil {
		return nil, err
	}
	if summary.RecentActivity.Completed, err = s.taskRepo.CountCompletedSince(ctx, since); err != nil {
		return nil, err
	}

	users, err := s.userCompletion(ctx)
	if err != nil {
		return nil, err
	}
	summary.Users = users
	return summary, nil
}

// userCompletion 完成率 = 已完成数 / 分配数
func (s *analyticsService) userCompletion(ctx context.Context) ([]*UserCompletion, error) {
	stats, err := s.taskRepo.AssigneeStats(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	type profile struct {
		name   string
		rating float64
	}
	profiles := make(map[string]profile, len(users))
	for _, u := range users {
		profiles[u.ID] = profile{name: u.Name, rating: u.Rating}
	}

	out := make([]*UserCompletion, 0, len(stats))
	for _, st := range stats {
		row := &UserCompletion{
			UserID:    st.UserID,
			Name:      profiles[st.UserID].name,
			Assigned:  st.Assigned,
			Completed: st.Completed,
			Earnings:  st.Earnings,
			Rating:    task.Round2(profiles[st.UserID].rating),
		}
		if st.Assigned > 0 {
			row.CompletionRate = task.Round2(float64(st.Completed) / float64(st.Assigned))
		}
		out = append(out, row)
	}
	return out, nil
}
