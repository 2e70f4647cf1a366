package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.UserModel, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.UserModel, error)
	FindAll(ctx context.Context) ([]*model.UserModel, error)
	// Upsert 按 ID 写入用户资料,不覆盖累计计数
	Upsert(ctx context.Context, user *model.UserModel) error
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.NewNotFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FindByIDs 批量查找用户,不存在的 ID 不会出现在结果中
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// FindAll 查找所有用户
func (r *userRepository) FindAll(ctx context.Context) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// Upsert 按 ID 写入用户资料
func (r *userRepository) Upsert(ctx context.Context, user *model.UserModel) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "active", "skills", "updated_at"}),
	}).Create(user).Error
}
