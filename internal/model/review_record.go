package model

import (
	"errors"
	"time"
)

// ReviewRecordModel 审核记录数据模型
type ReviewRecordModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TaskID    string    `gorm:"type:varchar(64);not null;index" json:"task_id"`
	Reviewer  string    `gorm:"type:varchar(64);not null;index" json:"reviewer"`
	Worker    string    `gorm:"type:varchar(64);index" json:"worker"`
	Action    string    `gorm:"type:varchar(16);not null" json:"action"` // approve/reject
	Rating    *int      `json:"rating"`
	Feedback  string    `gorm:"type:text" json:"feedback"`
	Reopen    bool      `gorm:"not null;default:false" json:"reopen"`
	Earnings  float64   `gorm:"not null;default:0" json:"earnings"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (ReviewRecordModel) TableName() string {
	return "review_records"
}

// Validate 验证审核记录模型
func (rm *ReviewRecordModel) Validate() error {
	if rm.ID == "" {
		return errors.New("record ID is required")
	}
	if rm.TaskID == "" {
		return errors.New("task ID is required")
	}
	if rm.Action == "" {
		return errors.New("review action is required")
	}
	return nil
}
