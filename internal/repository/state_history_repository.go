package repository

import (
	"context"

	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"gorm.io/gorm"
)

// StateHistoryRepository 状态历史仓储接口
// 写入由 TaskRepository 在任务事务内完成
type StateHistoryRepository interface {
	FindByTaskID(ctx context.Context, taskID string) ([]*model.StateHistoryModel, error)
}

// stateHistoryRepository 状态历史仓储实现
type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository 创建状态历史仓储
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

// FindByTaskID 根据任务 ID 查找状态历史,按发生顺序
func (r *stateHistoryRepository) FindByTaskID(ctx context.Context, taskID string) ([]*model.StateHistoryModel, error) {
	var histories []*model.StateHistoryModel
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("sequence ASC").Find(&histories).Error
	return histories, err
}
