package catalog

import (
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

var priorityOptions = []string{"low", "medium", "high", "critical"}

var difficultyOptions = []string{"beginner", "intermediate", "advanced", "expert"}

// baseFields 所有类别共用的字段
func baseFields() []Field {
	return []Field{
		{ID: "title", Label: "Title", Kind: KindText, Required: true, Section: SectionBasic, MinLength: task.MinTitleLength},
		{ID: "description", Label: "Description", Kind: KindTextarea, Required: true, Section: SectionBasic, MinLength: task.MinDescriptionLength},
		{ID: "type", Label: "Task type", Kind: KindText, Section: SectionBasic},
		{ID: "priority", Label: "Priority", Kind: KindSelect, Required: true, Section: SectionBasic, Options: priorityOptions},
		{ID: "difficulty_level", Label: "Difficulty", Kind: KindSelect, Required: true, Section: SectionBasic, Options: difficultyOptions},
		{ID: "instructions", Label: "Instructions", Kind: KindTextarea, Required: true, Section: SectionContent, MinLength: task.MinInstructionsLength},
		{ID: "guidelines", Label: "Guidelines", Kind: KindTextarea, Section: SectionContent},
		{ID: "expected_output", Label: "Expected output", Kind: KindTextarea, Section: SectionContent},
		{ID: "requirements", Label: "Requirements", Kind: KindList, Section: SectionRequirements},
		{ID: "deliverables", Label: "Deliverables", Kind: KindList, Required: true, Section: SectionRequirements},
		{ID: "quality_metrics", Label: "Quality metrics", Kind: KindList, Section: SectionRequirements},
		{ID: "required_skills", Label: "Required skills", Kind: KindList, Section: SectionRequirements},
		{ID: "hourly_rate", Label: "Hourly rate", Kind: KindNumber, Required: true, Section: SectionPayment, Validator: ValidatePositive},
		{ID: "estimated_hours", Label: "Estimated hours", Kind: KindNumber, Required: true, Section: SectionPayment, Validator: ValidatePositive},
		{ID: "deadline", Label: "Deadline", Kind: KindDate, Section: SectionPayment},
	}
}

func withContent(extra ...Field) []Field {
	fields := baseFields()
	for i := range extra {
		extra[i].Section = SectionContent
	}
	return append(fields, extra...)
}

func inputsField(required bool) Field {
	return Field{ID: "inputs", Label: "Test content", Kind: KindList, Required: required}
}

func urlField(id, label string) Field {
	return Field{ID: id, Label: label, Kind: KindURL, Validator: ValidateURL}
}

// templates 模板表,包初始化后只读
var templates = map[task.Category]Template{
	task.CategoryAITraining: {
		ID:          string(task.CategoryAITraining),
		Category:    task.CategoryAITraining,
		Name:        "AI Training",
		Description: "Write, rank or correct model responses used as training data.",
		Fields:      withContent(inputsField(true)),
		Defaults: Defaults{
			Type:           "response_writing",
			Priority:       task.PriorityMedium,
			Difficulty:     task.DifficultyIntermediate,
			HourlyRate:     20,
			EstimatedHours: 2,
			DeadlineDays:   7,
			Description:    "Produce high quality responses to the prompts provided so they can be used for model training.",
			Instructions:   "Read each prompt carefully. Write a complete, factually correct and helpful response. Follow the style guide and flag prompts that are unsafe instead of answering them.",
			Guidelines:     "Be accurate, cite sources where facts are non-obvious, and keep a neutral tone.",
			Requirements:   []string{"Fluent written English", "Attention to factual accuracy"},
			Deliverables:   []string{"One response per prompt"},
			QualityMetrics: []string{"Accuracy", "Helpfulness", "Style guide adherence"},
			RequiredSkills: []string{"writing", "research"},
		},
		Examples: []Example{
			{Title: "Explain photosynthesis", Inputs: []string{"Explain photosynthesis to a 10 year old."}},
			{Title: "Summarize an article", Inputs: []string{"Summarize the key points of the attached news article in five bullet points."}},
			{Title: "Debug a function", Inputs: []string{"Why does this Python function return None for even inputs?"}},
		},
	},
	task.CategoryDataAnnotation: {
		ID:          string(task.CategoryDataAnnotation),
		Category:    task.CategoryDataAnnotation,
		Name:        "Data Annotation",
		Description: "Label images, text or records according to a labeling schema.",
		Fields: withContent(
			urlField("image_url", "Image URL"),
			urlField("dataset_url", "Dataset URL"),
			inputsField(false),
		),
		Defaults: Defaults{
			Type:           "image_labeling",
			Priority:       task.PriorityMedium,
			Difficulty:     task.DifficultyBeginner,
			HourlyRate:     15,
			EstimatedHours: 2,
			DeadlineDays:   5,
			Description:    "Annotate the provided items with the labels defined in the labeling schema.",
			Instructions:   "Open each item, apply every label from the schema that applies, and draw tight bounding boxes where required. Skip items that are unreadable and note why.",
			Guidelines:     "Prefer precision over recall; when unsure, leave a comment instead of guessing.",
			Requirements:   []string{"Familiarity with the labeling schema"},
			Deliverables:   []string{"Annotation export file"},
			QualityMetrics: []string{"Label accuracy", "Box tightness"},
			RequiredSkills: []string{"annotation"},
		},
		Examples: []Example{
			{Title: "Street scene vehicles", CategoryData: task.CategoryData{ImageURL: "https://data.infera.ai/samples/street-001.jpg"}},
			{Title: "Product photo attributes", CategoryData: task.CategoryData{DatasetURL: "https://data.infera.ai/datasets/products-v2"}},
			{Title: "Sentiment tagging", Inputs: []string{"The delivery was late but the support team was great."}},
		},
	},
	task.CategoryModelEvaluation: {
		ID:          string(task.CategoryModelEvaluation),
		Category:    task.CategoryModelEvaluation,
		Name:        "Model Evaluation",
		Description: "Score model outputs against a rubric and report failure modes.",
		Fields: withContent(
			Field{ID: "model_name", Label: "Model name", Kind: KindText},
			inputsField(false),
		),
		Defaults: Defaults{
			Type:           "output_scoring",
			Priority:       task.PriorityHigh,
			Difficulty:     task.DifficultyAdvanced,
			HourlyRate:     30,
			EstimatedHours: 3,
			DeadlineDays:   7,
			Description:    "Evaluate model outputs against the rubric and document systematic failure modes.",
			Instructions:   "For every prompt, run the model, score the output on each rubric dimension from 1 to 5, and write a short justification for any score below 3.",
			Guidelines:     "Score independently of response length; penalize hallucinations heavily.",
			Requirements:   []string{"Experience evaluating language models"},
			Deliverables:   []string{"Scored rubric sheet", "Failure mode summary"},
			QualityMetrics: []string{"Inter-rater agreement", "Justification quality"},
			RequiredSkills: []string{"evaluation", "critical thinking"},
		},
		Examples: []Example{
			{Title: "Reasoning benchmark", CategoryData: task.CategoryData{ModelName: "infera-chat-v3"}},
			{Title: "Safety red teaming", CategoryData: task.CategoryData{ModelName: "infera-guard-v1"}, Inputs: []string{"Attempt to elicit unsafe medical advice."}},
		},
	},
	task.CategoryContentModeration: {
		ID:          string(task.CategoryContentModeration),
		Category:    task.CategoryContentModeration,
		Name:        "Content Moderation",
		Description: "Review user generated content against the moderation policy.",
		Fields: withContent(
			urlField("content_url", "Content URL"),
			inputsField(false),
		),
		Defaults: Defaults{
			Type:           "policy_review",
			Priority:       task.PriorityHigh,
			Difficulty:     task.DifficultyIntermediate,
			HourlyRate:     18,
			EstimatedHours: 1.5,
			DeadlineDays:   2,
			Description:    "Classify each content item as allowed, restricted or removed under the moderation policy.",
			Instructions:   "Review every item in the queue, select the policy category that applies, and choose an action. Escalate anything involving imminent harm immediately.",
			Guidelines:     "Apply the policy as written; do not apply personal judgement about tone.",
			Requirements:   []string{"Completed moderation policy training"},
			Deliverables:   []string{"Decision log"},
			QualityMetrics: []string{"Policy accuracy", "Escalation recall"},
			RequiredSkills: []string{"moderation"},
		},
		Examples: []Example{
			{Title: "Forum post queue", CategoryData: task.CategoryData{ContentURL: "https://data.infera.ai/moderation/forum-queue"}},
			{Title: "Comment triage", Inputs: []string{"Buy cheap followers now!!! link in bio"}},
		},
	},
	task.CategoryTranscription: {
		ID:          string(task.CategoryTranscription),
		Category:    task.CategoryTranscription,
		Name:        "Transcription",
		Description: "Transcribe audio recordings verbatim with speaker labels.",
		Fields: withContent(
			urlField("audio_url", "Audio URL"),
			inputsField(false),
		),
		Defaults: Defaults{
			Type:           "verbatim_transcription",
			Priority:       task.PriorityMedium,
			Difficulty:     task.DifficultyIntermediate,
			HourlyRate:     16,
			EstimatedHours: 2,
			DeadlineDays:   5,
			Description:    "Produce verbatim transcripts of the provided audio with speaker turns marked.",
			Instructions:   "Listen to the full recording, transcribe every spoken word verbatim, mark each speaker change, and tag inaudible segments with a timestamp.",
			Guidelines:     "Keep filler words; use [inaudible hh:mm:ss] for unclear audio.",
			Requirements:   []string{"Headphones", "Native level listening comprehension"},
			Deliverables:   []string{"Transcript text file"},
			QualityMetrics: []string{"Word error rate", "Speaker attribution"},
			RequiredSkills: []string{"transcription"},
		},
		Examples: []Example{
			{Title: "Customer support call", CategoryData: task.CategoryData{AudioURL: "https://data.infera.ai/audio/support-0142.wav"}},
			{Title: "Podcast segment", CategoryData: task.CategoryData{AudioURL: "https://data.infera.ai/audio/podcast-77.mp3"}},
		},
	},
	task.CategoryTranslation: {
		ID:          string(task.CategoryTranslation),
		Category:    task.CategoryTranslation,
		Name:        "Translation",
		Description: "Translate source text into the target language preserving meaning and tone.",
		Fields: withContent(
			Field{ID: "source_language", Label: "Source language", Kind: KindText, Required: true},
			Field{ID: "target_language", Label: "Target language", Kind: KindText, Required: true},
			inputsField(true),
		),
		Defaults: Defaults{
			Type:           "text_translation",
			Priority:       task.PriorityMedium,
			Difficulty:     task.DifficultyIntermediate,
			HourlyRate:     22,
			EstimatedHours: 2,
			DeadlineDays:   5,
			Description:    "Translate each source segment into the target language with natural phrasing.",
			Instructions:   "Translate every segment faithfully. Preserve formatting, placeholders and named entities. Add a translator note where a literal translation would mislead.",
			Guidelines:     "Use the glossary terms when provided; never machine translate without post-editing.",
			Requirements:   []string{"Native speaker of the target language"},
			Deliverables:   []string{"Translated segments"},
			QualityMetrics: []string{"Accuracy", "Fluency", "Terminology consistency"},
			RequiredSkills: []string{"translation"},
		},
		Examples: []Example{
			{Title: "Onboarding email", Inputs: []string{"Welcome aboard! Your workspace is ready."}, CategoryData: task.CategoryData{SourceLanguage: "en", TargetLanguage: "fr"}},
			{Title: "App store listing", Inputs: []string{"Track your tasks and get paid weekly."}, CategoryData: task.CategoryData{SourceLanguage: "en", TargetLanguage: "es"}},
		},
	},
	task.CategoryResearch: {
		ID:          string(task.CategoryResearch),
		Category:    task.CategoryResearch,
		Name:        "Research",
		Description: "Collect and synthesize sources on a topic into a short brief.",
		Fields: withContent(
			Field{ID: "research_topic", Label: "Research topic", Kind: KindText, Required: true, MinLength: 3},
			inputsField(false),
		),
		Defaults: Defaults{
			Type:           "desk_research",
			Priority:       task.PriorityLow,
			Difficulty:     task.DifficultyAdvanced,
			HourlyRate:     28,
			EstimatedHours: 4,
			DeadlineDays:   10,
			Description:    "Research the topic and deliver a sourced brief with key findings.",
			Instructions:   "Find at least five credible primary or secondary sources, extract the key findings, and write a brief that cites each claim. Note open questions at the end.",
			Guidelines:     "Prefer peer reviewed and official sources; record access dates for web pages.",
			Requirements:   []string{"Experience with literature review"},
			Deliverables:   []string{"Research brief", "Source list"},
			QualityMetrics: []string{"Source credibility", "Coverage", "Clarity"},
			RequiredSkills: []string{"research", "writing"},
		},
		Examples: []Example{
			{Title: "Synthetic data adoption", CategoryData: task.CategoryData{ResearchTopic: "Adoption of synthetic data in medical imaging"}},
			{Title: "Annotation tooling landscape", CategoryData: task.CategoryData{ResearchTopic: "Open source data annotation tools compared"}},
		},
	},
}
