package repository

import (
	"context"

	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"gorm.io/gorm"
)

// ReviewRecordRepository 审核记录仓储接口
type ReviewRecordRepository interface {
	FindByTaskID(ctx context.Context, taskID string) ([]*model.ReviewRecordModel, error)
	FindByReviewer(ctx context.Context, reviewer string) ([]*model.ReviewRecordModel, error)
	CountByAction(ctx context.Context) (map[string]int64, error)
}

// reviewRecordRepository 审核记录仓储实现
type reviewRecordRepository struct {
	db *gorm.DB
}

// NewReviewRecordRepository 创建审核记录仓储
func NewReviewRecordRepository(db *gorm.DB) ReviewRecordRepository {
	return &reviewRecordRepository{db: db}
}

// FindByTaskID 根据任务 ID 查找审核记录
func (r *reviewRecordRepository) FindByTaskID(ctx context.Context, taskID string) ([]*model.ReviewRecordModel, error) {
	var records []*model.ReviewRecordModel
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&records).Error
	return records, err
}

// FindByReviewer 根据审核人查找审核记录
func (r *reviewRecordRepository) FindByReviewer(ctx context.Context, reviewer string) ([]*model.ReviewRecordModel, error) {
	var records []*model.ReviewRecordModel
	err := r.db.WithContext(ctx).Where("reviewer = ?", reviewer).Order("created_at DESC").Find(&records).Error
	return records, err
}

// CountByAction 按审核动作统计
func (r *reviewRecordRepository) CountByAction(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Action string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.ReviewRecordModel{}).
		Select("action, COUNT(*) AS count").
		Group("action").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(results))
	for _, res := range results {
		out[res.Action] = res.Count
	}
	return out, nil
}
