package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// Section 表单分区
type Section string

const (
	SectionBasic        Section = "basic"
	SectionContent      Section = "content"
	SectionRequirements Section = "requirements"
	SectionPayment      Section = "payment"
)

// Sections 分区顺序
var Sections = []Section{SectionBasic, SectionContent, SectionRequirements, SectionPayment}

// ParseSection 解析分区名称
func ParseSection(s string) (Section, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, sec := range Sections {
		if string(sec) == key {
			return sec, true
		}
	}
	return "", false
}

// FieldKind 字段输入类型
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindURL      FieldKind = "url"
	KindNumber   FieldKind = "number"
	KindList     FieldKind = "list"
	KindSelect   FieldKind = "select"
	KindDate     FieldKind = "date"
)

// Validator 字段附加校验规则
type Validator string

const (
	ValidateNone     Validator = ""
	ValidateURL      Validator = "url"
	ValidatePositive Validator = "positive"
)

// Field 模板字段定义
type Field struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Kind      FieldKind `json:"kind"`
	Required  bool      `json:"required"`
	Section   Section   `json:"section"`
	MinLength int       `json:"min_length,omitempty"`
	Validator Validator `json:"validator,omitempty"`
	Options   []string  `json:"options,omitempty"`
}

// Defaults 模板默认值
type Defaults struct {
	Type             string          `json:"type"`
	Priority         task.Priority   `json:"priority"`
	Difficulty       task.Difficulty `json:"difficulty_level"`
	HourlyRate       float64         `json:"hourly_rate"`
	EstimatedHours   float64         `json:"estimated_hours"`
	DeadlineDays     int             `json:"deadline_days"`
	Description      string          `json:"description"`
	Instructions     string          `json:"instructions"`
	Guidelines       string          `json:"guidelines"`
	Requirements     []string        `json:"requirements"`
	Deliverables     []string        `json:"deliverables"`
	QualityMetrics   []string        `json:"quality_metrics"`
	RequiredSkills   []string        `json:"required_skills"`
	IsQualityControl bool            `json:"is_quality_control"`
}

// Example 示例内容,批量生成时轮流使用
type Example struct {
	Title          string            `json:"title"`
	Inputs         []string          `json:"inputs,omitempty"`
	ExpectedOutput string            `json:"expected_output,omitempty"`
	CategoryData   task.CategoryData `json:"category_data"`
}

// Template 任务模板
type Template struct {
	ID          string        `json:"id"`
	Category    task.Category `json:"category"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []Field       `json:"fields"`
	Defaults    Defaults      `json:"default_values"`
	Examples    []Example     `json:"examples"`
}

// FieldsIn 返回指定分区的字段
func (t Template) FieldsIn(section Section) []Field {
	out := make([]Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// List 返回全部模板,按类别顺序
func List() []Template {
	out := make([]Template, 0, len(task.Categories))
	for _, c := range task.Categories {
		out = append(out, templates[c])
	}
	return out
}

// Get 根据模板 ID 查找模板,大小写不敏感
func Get(id string) (Template, error) {
	c, ok := task.ParseCategory(id)
	if !ok {
		return Template{}, task.NewNotFound("template", id)
	}
	tpl, ok := templates[c]
	if !ok {
		return Template{}, task.NewNotFound("template", id)
	}
	return tpl, nil
}

// Fields 返回模板在指定分区下的字段
func Fields(id string, section Section) ([]Field, error) {
	tpl, err := Get(id)
	if err != nil {
		return nil, err
	}
	return tpl.FieldsIn(section), nil
}

// ValidateSection 校验表单某一分区的取值,用于分步填写
func ValidateSection(id string, section Section, values map[string]interface{}) error {
	tpl, err := Get(id)
	if err != nil {
		return err
	}
	errs := task.FieldErrors{}
	for _, f := range tpl.FieldsIn(section) {
		checkValue(f, values[f.ID], errs)
	}
	if section == SectionContent {
		data, inputs := contentFromValues(values)
		task.ValidateContent(tpl.Category, data, inputs, errs)
	}
	return errs.Err()
}

// CheckRequired 校验任务是否填写了模板要求的字段
func CheckRequired(tpl Template, t *task.Task, errs task.FieldErrors) {
	for _, f := range tpl.Fields {
		v, known := FieldValue(t, f.ID)
		if !known {
			continue
		}
		checkValue(f, v, errs)
	}
}

// FieldValue 按字段 ID 取任务上的值
func FieldValue(t *task.Task, id string) (interface{}, bool) {
	switch id {
	case "title":
		return t.Title, true
	case "description":
		return t.Description, true
	case "type":
		return t.Type, true
	case "priority":
		return string(t.Priority), true
	case "difficulty_level":
		return string(t.Difficulty), true
	case "instructions":
		return t.Instructions, true
	case "guidelines":
		return t.Guidelines, true
	case "inputs":
		return t.Inputs, true
	case "expected_output":
		return t.ExpectedOutput, true
	case "requirements":
		return t.Requirements, true
	case "deliverables":
		return t.Deliverables, true
	case "quality_metrics":
		return t.QualityMetrics, true
	case "required_skills":
		return t.RequiredSkills, true
	case "hourly_rate":
		return t.HourlyRate, true
	case "estimated_hours":
		return t.EstimatedHours, true
	case "deadline":
		if t.Deadline.IsZero() {
			return "", true
		}
		return t.Deadline.Format("2006-01-02T15:04:05Z07:00"), true
	case "image_url":
		return t.CategoryData.ImageURL, true
	case "dataset_url":
		return t.CategoryData.DatasetURL, true
	case "audio_url":
		return t.CategoryData.AudioURL, true
	case "content_url":
		return t.CategoryData.ContentURL, true
	case "source_language":
		return t.CategoryData.SourceLanguage, true
	case "target_language":
		return t.CategoryData.TargetLanguage, true
	case "model_name":
		return t.CategoryData.ModelName, true
	case "research_topic":
		return t.CategoryData.ResearchTopic, true
	}
	return nil, false
}

func checkValue(f Field, v interface{}, errs task.FieldErrors) {
	if isEmpty(v) {
		if f.Required {
			errs.Add(f.ID, fmt.Sprintf("%s is required", f.Label))
		}
		return
	}
	switch val := v.(type) {
	case string:
		if f.MinLength > 0 && task.TextLength(val) < f.MinLength {
			errs.Add(f.ID, fmt.Sprintf("%s must be at least %d characters", f.Label, f.MinLength))
		}
		if f.Validator == ValidateURL && !isURL(val) {
			errs.Add(f.ID, fmt.Sprintf("%s must be an absolute URL", f.Label))
		}
		if len(f.Options) > 0 && !contains(f.Options, strings.ToLower(strings.TrimSpace(val))) {
			errs.Add(f.ID, fmt.Sprintf("%s must be one of %s", f.Label, strings.Join(f.Options, ", ")))
		}
		if f.Validator == ValidatePositive {
			errs.Add(f.ID, fmt.Sprintf("%s must be a number", f.Label))
		}
	case float64:
		if f.Validator == ValidatePositive && val <= 0 {
			errs.Add(f.ID, fmt.Sprintf("%s must be greater than 0", f.Label))
		}
	case int:
		if f.Validator == ValidatePositive && val <= 0 {
			errs.Add(f.ID, fmt.Sprintf("%s must be greater than 0", f.Label))
		}
	}
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(task.NonBlank(val)) == 0
	case []interface{}:
		return len(toStrings(val)) == 0
	case float64:
		return val == 0
	case int:
		return val == 0
	}
	return false
}

func isURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && u.Scheme != "" && u.Host != ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toStrings(in []interface{}) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func contentFromValues(values map[string]interface{}) (task.CategoryData, []string) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}
	var inputs []string
	switch v := values["inputs"].(type) {
	case []interface{}:
		inputs = toStrings(v)
	case []string:
		inputs = v
	case string:
		inputs = []string{v}
	}
	return task.CategoryData{
		ImageURL:       str("image_url"),
		DatasetURL:     str("dataset_url"),
		AudioURL:       str("audio_url"),
		ContentURL:     str("content_url"),
		SourceLanguage: str("source_language"),
		TargetLanguage: str("target_language"),
		ModelName:      str("model_name"),
		ResearchTopic:  str("research_topic"),
	}, inputs
}
