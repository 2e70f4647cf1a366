package task

import (
	"time"
)

// CategoryData 类别相关的内容字段
// 不同类别只使用其中一部分,校验按 Category 分发
type CategoryData struct {
	ImageURL       string `json:"image_url,omitempty"`
	DatasetURL     string `json:"dataset_url,omitempty"`
	AudioURL       string `json:"audio_url,omitempty"`
	ContentURL     string `json:"content_url,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	ModelName      string `json:"model_name,omitempty"`
	ResearchTopic  string `json:"research_topic,omitempty"`
}

// Task 一个可分配、可结算的工作单元
type Task struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"template_id,omitempty"`
	Category   Category   `json:"category"`
	Type       string     `json:"type"`
	Priority   Priority   `json:"priority"`
	Difficulty Difficulty `json:"difficulty_level"`

	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Instructions   string       `json:"instructions"`
	Guidelines     string       `json:"guidelines"`
	Inputs         []string     `json:"inputs"`
	ExpectedOutput string       `json:"expected_output,omitempty"`
	Requirements   []string     `json:"requirements"`
	Deliverables   []string     `json:"deliverables"`
	QualityMetrics []string     `json:"quality_metrics"`
	RequiredSkills []string     `json:"required_skills"`
	CategoryData   CategoryData `json:"category_data"`

	EstimatedHours float64   `json:"estimated_hours"`
	HourlyRate     float64   `json:"hourly_rate"`
	Deadline       time.Time `json:"deadline"`
	ActualHours    *float64  `json:"actual_hours,omitempty"`
	TotalEarnings  float64   `json:"total_earnings"`

	AssignedTo       []string `json:"assigned_to"`
	Status           Status   `json:"status"`
	IsQualityControl bool     `json:"is_quality_control"`

	SubmissionNotes string     `json:"submission_notes,omitempty"`
	SubmissionFiles []string   `json:"submission_files,omitempty"`
	ReviewNotes     string     `json:"review_notes,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	Rating          *int       `json:"rating,omitempty"`
	Feedback        string     `json:"feedback,omitempty"`

	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Version 乐观锁版本号,每次写入加一
	Version int `json:"version"`
}

// IsAssignee 判断用户是否在分配列表中
func (t *Task) IsAssignee(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// Value 任务标价 hourlyRate × estimatedHours
func (t *Task) Value() float64 {
	return Round2(t.HourlyRate * t.EstimatedHours)
}

// Clone 深拷贝任务
func (t *Task) Clone() *Task {
	c := *t
	c.Inputs = cloneStrings(t.Inputs)
	c.Requirements = cloneStrings(t.Requirements)
	c.Deliverables = cloneStrings(t.Deliverables)
	c.QualityMetrics = cloneStrings(t.QualityMetrics)
	c.RequiredSkills = cloneStrings(t.RequiredSkills)
	c.AssignedTo = cloneStrings(t.AssignedTo)
	c.SubmissionFiles = cloneStrings(t.SubmissionFiles)
	if t.ActualHours != nil {
		h := *t.ActualHours
		c.ActualHours = &h
	}
	if t.Rating != nil {
		r := *t.Rating
		c.Rating = &r
	}
	c.ReviewedAt = cloneTime(t.ReviewedAt)
	c.StartedAt = cloneTime(t.StartedAt)
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

// StateChange 一次状态变更
type StateChange struct {
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	Event    Event     `json:"event"`
	Reason   string    `json:"reason"`
	Operator string    `json:"operator"`
	Time     time.Time `json:"time"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
