// Package schema defines the lesson evaluation data contract shared by the
// HTTP API, the LLM prompt, the response normalizer and the demo generator.
package schema

import "strings"

// Default values applied when an upload omits or blanks a metadata field.
const (
	DefaultTeacherName           = "Unknown Teacher"
	DefaultSchoolName            = "Unknown School"
	DefaultRegion                = "Unspecified Region"
	DefaultAgeGroup              = "Upper primary (9–11 years)"
	DefaultSubject               = "General Studies"
	DefaultLessonType            = "Practice / consolidation"
	DefaultCurriculumGoal        = "Not provided"
	DefaultLanguageOfInstruction = "Czech"
)

// LessonMetadata describes the lesson context attached to an audio upload.
// It exists per request only and is never persisted.
type LessonMetadata struct {
	TeacherName           string         `json:"teacher_name"`
	SchoolName            string         `json:"school_name"`
	Region                string         `json:"region"`
	AgeGroup              string         `json:"age_group"`
	Subject               string         `json:"subject"`
	LessonType            string         `json:"lesson_type"`
	CurriculumGoal        string         `json:"curriculum_goal"`
	LanguageOfInstruction string         `json:"language_of_instruction"`
	ExtraMetadata         map[string]any `json:"extra_metadata,omitempty"`
}

// knownMetadataKeys lists the eight resolvable fields by their wire names.
var knownMetadataKeys = []string{
	"teacher_name",
	"school_name",
	"region",
	"age_group",
	"subject",
	"lesson_type",
	"curriculum_goal",
	"language_of_instruction",
}

// ResolveMetadata merges a possibly-partial key/value mapping with the fixed
// defaults. A known field is taken from the input only when it carries a
// non-empty string after trimming; everything else degrades to its default.
// Unknown keys are preserved under ExtraMetadata without validation.
// Resolution never fails.
func ResolveMetadata(payload map[string]any) LessonMetadata {
	meta := LessonMetadata{
		TeacherName:           DefaultTeacherName,
		SchoolName:            DefaultSchoolName,
		Region:                DefaultRegion,
		AgeGroup:              DefaultAgeGroup,
		Subject:               DefaultSubject,
		LessonType:            DefaultLessonType,
		CurriculumGoal:        DefaultCurriculumGoal,
		LanguageOfInstruction: DefaultLanguageOfInstruction,
	}
	if payload == nil {
		return meta
	}

	fields := map[string]*string{
		"teacher_name":            &meta.TeacherName,
		"school_name":             &meta.SchoolName,
		"region":                  &meta.Region,
		"age_group":               &meta.AgeGroup,
		"subject":                 &meta.Subject,
		"lesson_type":             &meta.LessonType,
		"curriculum_goal":         &meta.CurriculumGoal,
		"language_of_instruction": &meta.LanguageOfInstruction,
	}

	known := make(map[string]bool, len(knownMetadataKeys))
	for _, k := range knownMetadataKeys {
		known[k] = true
	}

	for key, value := range payload {
		target, ok := fields[key]
		if !ok {
			continue
		}
		if s, ok := value.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				*target = trimmed
			}
		}
	}

	// Unknown top-level keys, plus anything nested under "extra_metadata",
	// ride along for display but are never validated.
	extra := map[string]any{}
	for key, value := range payload {
		if known[key] || key == "extra_metadata" {
			continue
		}
		extra[key] = value
	}
	if nested, ok := payload["extra_metadata"].(map[string]any); ok {
		for key, value := range nested {
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		meta.ExtraMetadata = extra
	}

	return meta
}

// PlaceholderMapping returns the uppercase placeholder values interpolated
// into the evaluator prompt template.
func (m LessonMetadata) PlaceholderMapping() map[string]string {
	return map[string]string{
		"TEACHER_NAME":    m.TeacherName,
		"SCHOOL_NAME":     m.SchoolName,
		"REGION":          m.Region,
		"AGE_GROUP":       m.AgeGroup,
		"SUBJECT":         m.Subject,
		"LESSON_TYPE":     m.LessonType,
		"CURRICULUM_GOAL": m.CurriculumGoal,
		"LANGUAGE":        m.LanguageOfInstruction,
	}
}

// Overview projects the metadata into a lesson overview header. The
// curriculum_goal field surfaces as curriculum_goal_inferred_or_given; the
// original key name never appears in the overview.
func (m LessonMetadata) Overview() LessonOverview {
	return LessonOverview{
		TeacherName:       m.TeacherName,
		SchoolName:        m.SchoolName,
		Region:            m.Region,
		AgeGroup:          m.AgeGroup,
		Subject:           m.Subject,
		LessonType:        m.LessonType,
		CurriculumGoal:    m.CurriculumGoal,
		OverallImpression: "",
	}
}
