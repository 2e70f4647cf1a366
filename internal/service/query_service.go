package service

import (
	"context"

	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// QueryService 查询服务接口
type QueryService interface {
	List(ctx context.Context, filter *repository.TaskFilter) (*TaskPage, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	History(ctx context.Context, id string) ([]*model.StateHistoryModel, error)
	Reviews(ctx context.Context, id string) ([]*model.ReviewRecordModel, error)
	// ReviewQueue 待审核任务,按提交时间从早到晚
	ReviewQueue(ctx context.Context, page, pageSize int) (*TaskPage, error)
}

// TaskPage 分页结果
type TaskPage struct {
	Items    []*task.Task `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// queryService 查询服务实现
type queryService struct {
	taskRepo    repository.TaskRepository
	historyRepo repository.StateHistoryRepository
	reviewRepo  repository.ReviewRecordRepository
}

// NewQueryService 创建查询服务
func NewQueryService(
	taskRepo repository.TaskRepository,
	historyRepo repository.StateHistoryRepository,
	reviewRepo repository.ReviewRecordRepository,
) QueryService {
	return &queryService{
		taskRepo:    taskRepo,
		historyRepo: historyRepo,
		reviewRepo:  reviewRepo,
	}
}

// List 查询任务列表
func (s *queryService) List(ctx context.Context, filter *repository.TaskFilter) (*TaskPage, error) {
	if filter == nil {
		filter = &repository.TaskFilter{}
	}
	items, total, err := s.taskRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, pageSize := repository.NormalizePage(filter.Page, filter.PageSize)
	return &TaskPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get 获取任务详情
func (s *queryService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.taskRepo.FindByID(ctx, id)
}

// History 获取任务状态历史
func (s *queryService) History(ctx context.Context, id string) ([]*model.StateHistoryModel, error) {
	if _, err := s.taskRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByTaskID(ctx, id)
}

// Reviews 获取任务审核记录
func (s *queryService) Reviews(ctx context.Context, id string) ([]*model.ReviewRecordModel, error) {
	if _, err := s.taskRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.reviewRepo.FindByTaskID(ctx, id)
}

// ReviewQueue 待审核队列,由 UNDER_REVIEW 状态的任务推导
func (s *queryService) ReviewQueue(ctx context.Context, page, pageSize int) (*TaskPage, error) {
	return s.List(ctx, &repository.TaskFilter{
		Statuses: []task.Status{task.StatusUnderReview},
		Page:     page,
		PageSize: pageSize,
		SortBy:   "submitted_at",
		Order:    "asc",
	})
}
