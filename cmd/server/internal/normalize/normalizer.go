// Package normalize repairs raw LLM evaluation output into the fixed
// EvaluationPayload shape. No error ever leaves this package: callers always
// receive a structurally valid payload, falling back to the fixed sample when
// the candidate cannot be trusted.
package normalize

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/fkarika/classeval/cmd/server/internal/schema"
)

// Top-level sections every usable candidate must carry.
var requiredSections = []string{
	"lesson_overview",
	"domain_scores",
	"global_rating",
	"limits_of_inference",
}

// Result is the outcome of a strict decode attempt. Valid carries the decoded
// payload; Invalid carries the reason the candidate was discarded.
type Result struct {
	Payload schema.EvaluationPayload
	Valid   bool
	Reason  string
}

// Normalize turns a raw value of unknown shape into a well-formed payload.
//
// Policy, in order:
//  1. nil raw value: return the sample fallback.
//  2. string raw value: parse as JSON; on failure return the fallback.
//  3. candidate missing any required top-level section: return the fallback
//     wholesale. There is no partial repair across sections.
//  4. lesson_overview, global_rating and limits_of_inference: shallow-merge
//     candidate fields over the fallback's fields, candidate winning per-field.
//  5. domain_scores: taken verbatim from the candidate. A differently-shaped
//     rubric from the producer is itself valid data.
//
// Numeric domain scores outside [1,4] are demoted to the N/A sentinel here;
// this is the only boundary that validates the range.
func Normalize(raw any) schema.EvaluationPayload {
	result := Decode(raw)
	if !result.Valid {
		return schema.SamplePayload()
	}
	return result.Payload
}

// Decode performs the strict decode and reports why a candidate was rejected
// instead of silently substituting the fallback. Normalize applies the
// fallback policy on the Invalid branch.
func Decode(raw any) Result {
	candidate, reason := candidateObject(raw)
	if candidate == nil {
		return Result{Payload: schema.SamplePayload(), Reason: reason}
	}

	for _, key := range requiredSections {
		if _, ok := candidate[key]; !ok {
			return Result{
				Payload: schema.SamplePayload(),
				Reason:  fmt.Sprintf("missing top-level section %q", key),
			}
		}
	}

	payload := schema.SamplePayload()
	payload.LessonOverview = mergeSection(payload.LessonOverview, candidate["lesson_overview"])
	payload.GlobalRating = mergeSection(payload.GlobalRating, candidate["global_rating"])
	payload.LimitsOfInference = mergeSection(payload.LimitsOfInference, candidate["limits_of_inference"])
	payload.DomainScores = decodeDomainScores(candidate["domain_scores"], payload.DomainScores)

	clampScores(payload.DomainScores)

	return Result{Payload: payload, Valid: true}
}

// candidateObject reduces the raw value to a JSON object, reporting the
// reason when it cannot.
func candidateObject(raw any) (map[string]any, string) {
	switch v := raw.(type) {
	case nil:
		return nil, "raw evaluation is null or absent"
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, fmt.Sprintf("raw evaluation is not valid JSON: %v", err)
		}
		return candidateObject(parsed)
	case map[string]any:
		return v, ""
	default:
		return nil, fmt.Sprintf("raw evaluation has unusable type %T", raw)
	}
}

// mergeSection overlays the candidate section's fields on top of the fallback
// section. The candidate wins per-field when present; a candidate section
// that is not a JSON object contributes nothing and the fallback survives.
// Each field is applied independently, so one type-mismatched candidate field
// keeps its fallback value without discarding the rest of the section.
func mergeSection[T any](fallback T, candidate any) T {
	candidateMap, ok := candidate.(map[string]any)
	if !ok {
		return fallback
	}

	base := map[string]any{}
	encoded, err := json.Marshal(fallback)
	if err != nil {
		return fallback
	}
	if err := json.Unmarshal(encoded, &base); err != nil {
		return fallback
	}

	out := fallback
	for key, value := range candidateMap {
		trial := maps.Clone(base)
		trial[key] = value

		merged, err := json.Marshal(trial)
		if err != nil {
			continue
		}
		var decoded T
		if err := json.Unmarshal(merged, &decoded); err != nil {
			continue
		}
		base = trial
		out = decoded
	}
	return out
}

// decodeDomainScores decodes the candidate rubric verbatim. The key set is
// whatever the producer sent; no merge with the fallback rubric happens. Only
// when the candidate section is not decodable as a rubric map at all does the
// fallback rubric survive.
func decodeDomainScores(candidate any, fallback map[string]schema.DomainScore) map[string]schema.DomainScore {
	encoded, err := json.Marshal(candidate)
	if err != nil {
		return fallback
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return fallback
	}

	scores := make(map[string]schema.DomainScore, len(raw))
	for key, entry := range raw {
		var d schema.DomainScore
		if err := json.Unmarshal(entry, &d); err != nil {
			// Entry is not an object; keep the key with an N/A score so the
			// renderer still shows the domain.
			d = schema.DomainScore{Score: schema.NAScore()}
		}
		scores[key] = d
	}
	return scores
}

// clampScores demotes out-of-range numeric scores to the N/A sentinel.
func clampScores(scores map[string]schema.DomainScore) {
	for key, d := range scores {
		if !d.Score.NA && !d.Score.InRange() {
			d.Score = schema.NAScore()
			scores[key] = d
		}
	}
}
