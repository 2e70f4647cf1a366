package task

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength        = 5
	MinDescriptionLength  = 20
	MinInstructionsLength = 50
)

// TextLength 去除首尾空白后的字符数
func TextLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Validate 校验任务的字段约束和类别内容约束
func Validate(t *Task) FieldErrors {
	errs := FieldErrors{}

	checkMinLength(errs, "title", t.Title, MinTitleLength)
	checkMinLength(errs, "description", t.Description, MinDescriptionLength)
	checkMinLength(errs, "instructions", t.Instructions, MinInstructionsLength)

	if !t.Category.Valid() {
		errs.Add("category", fmt.Sprintf("unknown category %q", t.Category))
	}
	if _, ok := ParsePriority(string(t.Priority)); !ok {
		errs.Add("priority", fmt.Sprintf("unknown priority %q", t.Priority))
	}
	if _, ok := ParseDifficulty(string(t.Difficulty)); !ok {
		errs.Add("difficulty_level", fmt.Sprintf("unknown difficulty %q", t.Difficulty))
	}
	if t.EstimatedHours <= 0 {
		errs.Add("estimated_hours", "must be greater than 0")
	}
	if t.HourlyRate <= 0 {
		errs.Add("hourly_rate", "must be greater than 0")
	}
	if !t.Deadline.IsZero() && t.Deadline.Before(t.CreatedAt) {
		errs.Add("deadline", "must not be before creation time")
	}

	ValidateContent(t.Category, t.CategoryData, t.Inputs, errs)
	return errs
}

// ValidateContent 按类别校验内容字段
func ValidateContent(category Category, data CategoryData, inputs []string, errs FieldErrors) {
	hasInputs := len(nonBlank(inputs)) > 0
	switch category {
	case CategoryDataAnnotation:
		if blank(data.ImageURL) && blank(data.DatasetURL) && !hasInputs {
			errs.Add("inputs", "data annotation requires image_url, dataset_url or at least one input")
		}
	case CategoryTranscription:
		if blank(data.AudioURL) && !hasInputs {
			errs.Add("inputs", "transcription requires audio_url or at least one input")
		}
	case CategoryTranslation:
		if blank(data.SourceLanguage) {
			errs.Add("source_language", "translation requires a source language")
		}
		if blank(data.TargetLanguage) {
			errs.Add("target_language", "translation requires a target language")
		}
		if !hasInputs {
			errs.Add("inputs", "translation requires at least one input")
		}
	case CategoryContentModeration:
		if blank(data.ContentURL) && !hasInputs {
			errs.Add("inputs", "content moderation requires content_url or at least one input")
		}
	case CategoryModelEvaluation:
		if blank(data.ModelName) && !hasInputs {
			errs.Add("inputs", "model evaluation requires model_name or at least one input")
		}
	case CategoryAITraining:
		if !hasInputs {
			errs.Add("inputs", "ai training requires at least one input")
		}
	case CategoryResearch:
		if blank(data.ResearchTopic) {
			errs.Add("research_topic", "research requires a research topic")
		}
	}
}

func checkMinLength(errs FieldErrors, field, value string, min int) {
	if TextLength(value) < min {
		errs.Add(field, fmt.Sprintf("must be at least %d characters", min))
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !blank(s) {
			out = append(out, s)
		}
	}
	return out
}

// NonBlank 去掉空白条目并裁剪首尾空白
func NonBlank(in []string) []string {
	out := nonBlank(in)
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}
