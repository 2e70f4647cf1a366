package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// TaskModel 任务数据模型
// 常用过滤和统计字段单独成列,完整的任务对象序列化保存在 Data 中
type TaskModel struct {
	ID               string         `gorm:"primaryKey;type:varchar(64)"`
	TemplateID       string         `gorm:"type:varchar(64);index"`
	Category         string         `gorm:"type:varchar(32);not null;index"`
	Status           string         `gorm:"type:varchar(32);not null;index"` // 任务状态
	Priority         string         `gorm:"type:varchar(16);not null;index"`
	Difficulty       string         `gorm:"type:varchar(16);not null"`
	Title            string         `gorm:"type:varchar(255);not null"`
	Description      string         `gorm:"type:text"`
	HourlyRate       float64        `gorm:"not null"`
	EstimatedHours   float64        `gorm:"not null"`
	TotalEarnings    float64        `gorm:"not null;default:0"`
	IsQualityControl bool           `gorm:"not null;default:false;index"`
	Data             datatypes.JSON `gorm:"not null"` // 序列化后的 Task 对象
	Version          int            `gorm:"not null;default:1"` // 乐观锁版本号
	Deadline         time.Time      `gorm:"index"`
	CreatedAt        time.Time      `gorm:"not null;index"`
	UpdatedAt        time.Time      `gorm:"not null;index"`
	SubmittedAt      *time.Time     `gorm:"index"` // 提交时间
	CompletedAt      *time.Time     `gorm:"index"` // 审核通过时间
	CreatedBy        string         `gorm:"type:varchar(64);index"` // 创建人 ID
}

// TableName 指定表名
func (TaskModel) TableName() string {
	return "tasks"
}

// Validate 验证任务模型
func (tm *TaskModel) Validate() error {
	if tm.ID == "" {
		return errors.New("task ID is required")
	}
	if tm.Category == "" {
		return errors.New("task category is required")
	}
	if tm.Status == "" {
		return errors.New("task status is required")
	}
	if len(tm.Data) == 0 {
		return errors.New("task data is required")
	}
	return nil
}

// TaskAssigneeModel 任务分配关系
type TaskAssigneeModel struct {
	TaskID   string `gorm:"primaryKey;type:varchar(64)"`
	UserID   string `gorm:"primaryKey;type:varchar(64);index"`
	Position int    `gorm:"not null"` // 在 assignedTo 中的顺序
}

// TableName 指定表名
func (TaskAssigneeModel) TableName() string {
	return "task_assignees"
}
