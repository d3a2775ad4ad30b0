package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Conventional rubric domain keys produced by the evaluator prompt. The
// payload tolerates other key sets; these are the eight the prompt asks for.
const (
	DomainInstructionalClarity  = "instructional_clarity_and_structure"
	DomainCognitiveEngagement   = "student_cognitive_engagement"
	DomainManagementAndPacing   = "classroom_management_and_pacing"
	DomainClimateAndTone        = "classroom_climate_and_tone"
	DomainQuestionsAndFeedback  = "questions_feedback_and_checks"
	DomainEquityAndStudentVoice = "equity_and_student_voice"
	DomainAgeAppropriateness    = "age_appropriateness_of_language"
	DomainSubjectPedagogy       = "subject_specific_pedagogy"
)

// DomainKeys lists the conventional rubric domains in prompt order.
var DomainKeys = []string{
	DomainInstructionalClarity,
	DomainCognitiveEngagement,
	DomainManagementAndPacing,
	DomainClimateAndTone,
	DomainQuestionsAndFeedback,
	DomainEquityAndStudentVoice,
	DomainAgeAppropriateness,
	DomainSubjectPedagogy,
}

// Score is a rubric score in the closed range [1,4], or the "N/A" sentinel
// for domains with insufficient audio evidence.
type Score struct {
	Value int
	NA    bool
}

// NewScore returns a numeric score.
func NewScore(v int) Score {
	return Score{Value: v}
}

// NAScore returns the not-applicable sentinel.
func NAScore() Score {
	return Score{NA: true}
}

// InRange reports whether a numeric score lies within [1,4].
func (s Score) InRange() bool {
	return !s.NA && s.Value >= 1 && s.Value <= 4
}

// MarshalJSON writes the numeric value, or the string "N/A" for the sentinel.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.NA {
		return json.Marshal("N/A")
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a JSON number, a numeric string, or any spelling of
// "NA"/"N/A". Everything unrecognizable degrades to the sentinel rather than
// failing the decode; LLM output is not trusted to be well-typed.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	var num float64
	if err := json.Unmarshal(trimmed, &num); err == nil {
		s.Value = int(math.Round(num))
		s.NA = false
		return nil
	}

	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		str = strings.TrimSpace(str)
		if parsed, err := strconv.ParseFloat(str, 64); err == nil {
			s.Value = int(math.Round(parsed))
			s.NA = false
			return nil
		}
	}

	*s = NAScore()
	return nil
}

// DomainScore is one rubric dimension's result.
type DomainScore struct {
	Score                Score    `json:"score_1_to_4_or_NA"`
	Evidence             string   `json:"evidence"`
	Suggestions          []string `json:"suggestions"`
	SubjectSpecificNotes string   `json:"subject_specific_notes,omitempty"`
}

// UnmarshalJSON decodes a domain entry field by field, ignoring fields whose
// JSON type does not match. A rubric entry shaped differently by the producer
// still decodes to whatever subset is usable.
func (d *DomainScore) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Score = NAScore()
	if v, ok := raw["score_1_to_4_or_NA"]; ok {
		_ = json.Unmarshal(v, &d.Score)
	}
	if v, ok := raw["evidence"]; ok {
		_ = json.Unmarshal(v, &d.Evidence)
	}
	if v, ok := raw["suggestions"]; ok {
		_ = json.Unmarshal(v, &d.Suggestions)
	}
	if v, ok := raw["subject_specific_notes"]; ok {
		_ = json.Unmarshal(v, &d.SubjectSpecificNotes)
	}
	return nil
}

// LessonOverview is the denormalized lesson header plus narrative summary.
type LessonOverview struct {
	TeacherName       string `json:"teacher_name"`
	SchoolName        string `json:"school_name"`
	Region            string `json:"region"`
	AgeGroup          string `json:"age_group"`
	Subject           string `json:"subject"`
	LessonType        string `json:"lesson_type"`
	CurriculumGoal    string `json:"curriculum_goal_inferred_or_given"`
	OverallImpression string `json:"overall_impression"`
}

// GlobalRating aggregates the rubric into a human-readable summary.
type GlobalRating struct {
	OverallBand   string   `json:"overall_score_average_or_band"`
	TopStrengths  []string `json:"top_strengths"`
	PriorityAreas []string `json:"priority_areas_for_growth"`
	NextSteps     []string `json:"concrete_next_steps_for_teacher"`
}

// LimitsOfInference documents what audio-only observation cannot support.
type LimitsOfInference struct {
	AudioOnlyConstraints        string   `json:"audio_only_constraints"`
	InsufficientEvidenceDomains []string `json:"insufficient_evidence_domains"`
}

// EvaluationPayload is the full contract returned to the dashboard. Every
// field must be populated before the payload leaves the backend; repairing
// partial payloads is the normalizer's job, never the renderer's.
type EvaluationPayload struct {
	LessonOverview    LessonOverview         `json:"lesson_overview"`
	DomainScores      map[string]DomainScore `json:"domain_scores"`
	GlobalRating      GlobalRating           `json:"global_rating"`
	LimitsOfInference LimitsOfInference      `json:"limits_of_inference"`
}
