package task

import (
	"strings"
)

// Category 任务类别
type Category string

const (
	CategoryAITraining        Category = "AI_TRAINING"
	CategoryDataAnnotation    Category = "DATA_ANNOTATION"
	CategoryModelEvaluation   Category = "MODEL_EVALUATION"
	CategoryContentModeration Category = "CONTENT_MODERATION"
	CategoryTranscription     Category = "TRANSCRIPTION"
	CategoryTranslation       Category = "TRANSLATION"
	CategoryResearch          Category = "RESEARCH"
)

// Categories 全部任务类别(固定顺序)
var Categories = []Category{
	CategoryAITraining,
	CategoryDataAnnotation,
	CategoryModelEvaluation,
	CategoryContentModeration,
	CategoryTranscription,
	CategoryTranslation,
	CategoryResearch,
}

// ParseCategory 解析任务类别,大小写不敏感,允许使用 "-" 代替 "_"
func ParseCategory(s string) (Category, bool) {
	key := normalizeKey(s)
	for _, c := range Categories {
		if string(c) == key {
			return c, true
		}
	}
	return "", false
}

// Valid 判断类别是否合法
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority 任务优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities 全部优先级
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority 解析优先级
func ParsePriority(s string) (Priority, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Priorities {
		if string(p) == key {
			return p, true
		}
	}
	return "", false
}

// Difficulty 难度等级
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// Difficulties 全部难度等级
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}

// ParseDifficulty 解析难度等级
func ParseDifficulty(s string) (Difficulty, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Difficulties {
		if string(d) == key {
			return d, true
		}
	}
	return "", false
}

// Status 任务状态
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusAssigned    Status = "ASSIGNED"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusCancelled   Status = "CANCELLED"
)

// Statuses 全部状态(按生命周期顺序)
var Statuses = []Status{
	StatusAvailable,
	StatusAssigned,
	StatusInProgress,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
}

// statusAliases 历史遗留的状态写法
var statusAliases = map[string]Status{
	"CREATED":   StatusAvailable,
	"OPEN":      StatusAvailable,
	"PENDING":   StatusAvailable,
	"SUBMITTED": StatusUnderReview,
	"REVIEW":    StatusUnderReview,
	"COMPLETED": StatusApproved,
	"CANCELED":  StatusCancelled,
}

// ParseStatus 解析任务状态,兼容大小写和历史写法
func ParseStatus(s string) (Status, bool) {
	key := normalizeKey(s)
	for _, st := range Statuses {
		if string(st) == key {
			return st, true
		}
	}
	if st, ok := statusAliases[key]; ok {
		return st, true
	}
	return "", false
}

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// ReviewAction 审核动作
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// ParseReviewAction 解析审核动作
func ParseReviewAction(s string) (ReviewAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return ReviewApprove, true
	case "reject", "rejected":
		return ReviewReject, true
	}
	return "", false
}

func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}
