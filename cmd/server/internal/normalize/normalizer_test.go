package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/fkarika/classeval/cmd/server/internal/schema"
)

// wellFormedCandidate builds a complete raw candidate as decoded JSON.
func wellFormedCandidate(t *testing.T) map[string]any {
	t.Helper()
	payload := schema.SamplePayload()
	payload.LessonOverview.TeacherName = "Mr. Candidate"
	payload.GlobalRating.OverallBand = "Exemplary"

	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal candidate: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("unmarshal candidate: %v", err)
	}
	return raw
}

func TestNormalizeNilReturnsFallback(t *testing.T) {
	got := Normalize(nil)
	want := schema.SamplePayload()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nil input did not return the fixed fallback payload")
	}
}

func TestNormalizeMalformedStringReturnsFallback(t *testing.T) {
	got := Normalize("this is { not json")
	want := schema.SamplePayload()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("malformed string did not return the fallback payload")
	}
}

func TestNormalizeJSONStringCandidate(t *testing.T) {
	candidate := wellFormedCandidate(t)
	encoded, _ := json.Marshal(candidate)

	got := Normalize(string(encoded))
	if got.LessonOverview.TeacherName != "Mr. Candidate" {
		t.Errorf("string-encoded candidate not decoded: teacher = %q", got.LessonOverview.TeacherName)
	}
}

func TestNormalizeMissingSectionIsWholeFallback(t *testing.T) {
	for _, section := range []string{"lesson_overview", "domain_scores", "global_rating", "limits_of_inference"} {
		t.Run(section, func(t *testing.T) {
			candidate := wellFormedCandidate(t)
			delete(candidate, section)

			got := Normalize(candidate)
			want := schema.SamplePayload()
			if !reflect.DeepEqual(got, want) {
				t.Errorf("missing %s should trigger whole-payload fallback", section)
			}
		})
	}
}

func TestNormalizePerFieldMergeWithinSection(t *testing.T) {
	candidate := wellFormedCandidate(t)
	overview := candidate["lesson_overview"].(map[string]any)
	delete(overview, "subject")
	overview["region"] = "South Moravia"

	got := Normalize(candidate)

	fallback := schema.SamplePayload()
	if got.LessonOverview.Subject != fallback.LessonOverview.Subject {
		t.Errorf("absent subject should retain fallback value, got %q", got.LessonOverview.Subject)
	}
	if got.LessonOverview.Region != "South Moravia" {
		t.Errorf("candidate-provided region lost: %q", got.LessonOverview.Region)
	}
	if got.LessonOverview.TeacherName != "Mr. Candidate" {
		t.Errorf("candidate-provided teacher lost: %q", got.LessonOverview.TeacherName)
	}
}

func TestNormalizeMismatchedFieldKeepsRestOfSection(t *testing.T) {
	candidate := wellFormedCandidate(t)
	overview := candidate["lesson_overview"].(map[string]any)
	overview["subject"] = 123 // wrong JSON type for a string field
	overview["region"] = "South Moravia"

	got := Normalize(candidate)

	fallback := schema.SamplePayload()
	if got.LessonOverview.Subject != fallback.LessonOverview.Subject {
		t.Errorf("mismatched subject should retain fallback value, got %q", got.LessonOverview.Subject)
	}
	if got.LessonOverview.Region != "South Moravia" {
		t.Errorf("well-typed region must survive a bad sibling field: %q", got.LessonOverview.Region)
	}
	if got.LessonOverview.TeacherName != "Mr. Candidate" {
		t.Errorf("well-typed teacher must survive a bad sibling field: %q", got.LessonOverview.TeacherName)
	}
}

func TestNormalizeGlobalRatingMerge(t *testing.T) {
	candidate := wellFormedCandidate(t)
	rating := candidate["global_rating"].(map[string]any)
	delete(rating, "top_strengths")

	got := Normalize(candidate)
	fallback := schema.SamplePayload()

	if got.GlobalRating.OverallBand != "Exemplary" {
		t.Errorf("candidate band lost: %q", got.GlobalRating.OverallBand)
	}
	if !reflect.DeepEqual(got.GlobalRating.TopStrengths, fallback.GlobalRating.TopStrengths) {
		t.Errorf("absent top_strengths should come from fallback")
	}
}

func TestNormalizeDomainScoresVerbatim(t *testing.T) {
	candidate := wellFormedCandidate(t)
	candidate["domain_scores"] = map[string]any{
		"a_rubric_nobody_expected": map[string]any{
			"score_1_to_4_or_NA": 2,
			"evidence":           "different rubric",
			"suggestions":        []any{"try x"},
		},
	}

	got := Normalize(candidate)

	if len(got.DomainScores) != 1 {
		t.Fatalf("expected candidate rubric verbatim, got %d domains", len(got.DomainScores))
	}
	d, ok := got.DomainScores["a_rubric_nobody_expected"]
	if !ok {
		t.Fatalf("candidate rubric key missing")
	}
	if d.Score != schema.NewScore(2) || d.Evidence != "different rubric" {
		t.Errorf("candidate rubric entry altered: %+v", d)
	}
}

func TestNormalizeClampsOutOfRangeScores(t *testing.T) {
	candidate := wellFormedCandidate(t)
	candidate["domain_scores"] = map[string]any{
		"overeager_domain": map[string]any{
			"score_1_to_4_or_NA": 9,
			"evidence":           "score out of rubric range",
		},
		"fine_domain": map[string]any{
			"score_1_to_4_or_NA": 4,
			"evidence":           "valid",
		},
	}

	got := Normalize(candidate)

	if !got.DomainScores["overeager_domain"].Score.NA {
		t.Errorf("out-of-range score not demoted to N/A: %+v", got.DomainScores["overeager_domain"].Score)
	}
	if got.DomainScores["fine_domain"].Score != schema.NewScore(4) {
		t.Errorf("in-range score altered: %+v", got.DomainScores["fine_domain"].Score)
	}
}

func TestDecodeReportsReasons(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"bad json string", "{{"},
		{"wrong type", 42},
		{"missing section", map[string]any{"lesson_overview": map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw)
			if result.Valid {
				t.Fatalf("expected invalid result")
			}
			if result.Reason == "" {
				t.Errorf("invalid result carries no reason")
			}
		})
	}
}

func TestDecodeValidCarriesNoReason(t *testing.T) {
	result := Decode(wellFormedCandidate(t))
	if !result.Valid {
		t.Fatalf("expected valid result, reason: %s", result.Reason)
	}
	if result.Reason != "" {
		t.Errorf("valid result should not carry a reason: %q", result.Reason)
	}
}

func TestNormalizeNonObjectSectionKeepsFallbackSection(t *testing.T) {
	candidate := wellFormedCandidate(t)
	candidate["limits_of_inference"] = "present but useless"

	got := Normalize(candidate)
	fallback := schema.SamplePayload()

	if !reflect.DeepEqual(got.LimitsOfInference, fallback.LimitsOfInference) {
		t.Errorf("non-object section should retain fallback content")
	}
	// The rest of the candidate still contributes.
	if got.LessonOverview.TeacherName != "Mr. Candidate" {
		t.Errorf("valid sections should still merge")
	}
}
