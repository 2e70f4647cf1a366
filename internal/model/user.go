package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// UserModel 用户参考数据
// 身份信息由外部系统维护,这里只累加审核通过后的计数
type UserModel struct {
	ID             string                      `gorm:"primaryKey;type:varchar(64)"`
	Name           string                      `gorm:"type:varchar(255);not null"`
	Email          string                      `gorm:"type:varchar(255);uniqueIndex"`
	Active         bool                        `gorm:"not null"`
	Skills         datatypes.JSONSlice[string]
	CompletedTasks int                         `gorm:"not null;default:0"`
	Rating         float64                     `gorm:"not null;default:0"` // 审核评分的滚动平均
	TotalEarnings  float64                     `gorm:"not null;default:0"` // 可支付收入,不含质检任务
	CreatedAt      time.Time                   `gorm:"not null"`
	UpdatedAt      time.Time                   `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Name == "" {
		return errors.New("user name is required")
	}
	return nil
}
