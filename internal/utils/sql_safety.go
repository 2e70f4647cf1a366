package utils

import (
	"errors"
	"strings"
)

// taskSortFields 任务列表允许的排序字段
var taskSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"submitted_at":    true,
	"completed_at":    true,
	"deadline":        true,
	"priority":        true,
	"status":          true,
	"category":        true,
	"title":           true,
	"hourly_rate":     true,
	"estimated_hours": true,
	"total_earnings":  true,
}

// ValidateSortField 验证排序字段，只允许白名单中的列
func ValidateSortField(field string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	if !taskSortFields[strings.ToLower(field)] {
		return errors.New("unsupported sort field: " + field)
	}
	return nil
}

// ValidateSortOrder 验证排序方向
func ValidateSortOrder(order string) error {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder != "ASC" && upperOrder != "DESC" {
		return errors.New("sort order must be ASC or DESC")
	}
	return nil
}

// SanitizeSortOrder 清理排序方向
func SanitizeSortOrder(order string) string {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder == "ASC" || upperOrder == "DESC" {
		return upperOrder
	}
	return "DESC" // 默认降序
}

// likeEscaper 转义 LIKE 通配符
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern 构造大小写不敏感的包含匹配模式,配合 ESCAPE '\' 使用
func LikePattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"
}
