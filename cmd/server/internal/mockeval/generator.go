// Package mockeval produces syntactically valid evaluation payloads without
// any external service call, for demo and offline dashboard use.
package mockeval

import (
	"fmt"
	"math/rand"

	"github.com/fkarika/classeval/cmd/server/internal/schema"
)

// Band thresholds over the mean of generated domain scores. Fixed lookup
// table; the mean is classified into the first band whose threshold it meets.
const (
	thresholdExemplary  = 3.5
	thresholdEffective  = 3.0
	thresholdDeveloping = 2.25
)

// Band names, highest to lowest.
const (
	BandExemplary      = "Exemplary"
	BandEffective      = "Effective"
	BandDeveloping     = "Developing"
	BandUnsatisfactory = "Unsatisfactory"
)

// Counts drawn from each narrative pool.
const (
	strengthCount = 2
	growthCount   = 2
	nextStepCount = 3
)

// Generator builds randomized evaluations. The random source is injected so
// tests can fix a seed and assert exact outputs.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator around the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// BandForMean classifies a mean score into its human-readable band.
func BandForMean(mean float64) string {
	switch {
	case mean >= thresholdExemplary:
		return BandExemplary
	case mean >= thresholdEffective:
		return BandEffective
	case mean >= thresholdDeveloping:
		return BandDeveloping
	default:
		return BandUnsatisfactory
	}
}

// Generate produces a self-consistent evaluation for the resolved metadata.
// It starts from the fixed sample payload as a structural template, replaces
// every domain score with an independent draw from [1,4], derives the band
// from the mean, and fills the narrative sections from fixed template pools.
// limits_of_inference is copied unchanged from the sample. Generation cannot
// fail; malformed metadata has already degraded to defaults upstream.
func (g *Generator) Generate(meta schema.LessonMetadata) schema.EvaluationPayload {
	payload := schema.SamplePayload()

	total := 0
	for _, key := range schema.DomainKeys {
		score := 1 + g.rng.Intn(4)
		total += score

		d := payload.DomainScores[key]
		d.Score = schema.NewScore(score)
		payload.DomainScores[key] = d
	}
	mean := float64(total) / float64(len(schema.DomainKeys))
	band := BandForMean(mean)

	overview := meta.Overview()
	overview.OverallImpression = overallImpression(band, meta)
	payload.LessonOverview = overview

	payload.GlobalRating = schema.GlobalRating{
		OverallBand:   fmt.Sprintf("%s (avg %.2f)", band, mean),
		TopStrengths:  g.draw(strengthPool(meta), strengthCount),
		PriorityAreas: g.draw(growthPool(meta), growthCount),
		NextSteps:     g.draw(nextStepPool(meta), nextStepCount),
	}

	// limits_of_inference intentionally left as the sample's fixed content.
	return payload
}

// draw selects count entries from pool without replacement, preserving the
// permutation order produced by the random source.
func (g *Generator) draw(pool []string, count int) []string {
	if count > len(pool) {
		count = len(pool)
	}
	picked := make([]string, 0, count)
	for _, idx := range g.rng.Perm(len(pool))[:count] {
		picked = append(picked, pool[idx])
	}
	return picked
}

// overallImpression branches its tone on the computed band.
func overallImpression(band string, meta schema.LessonMetadata) string {
	switch band {
	case BandExemplary:
		return fmt.Sprintf("%s led an exceptional %s lesson in %s: instructions were crisp, students did the thinking, and the classroom tone invited every voice.", meta.TeacherName, meta.LessonType, meta.Subject)
	case BandEffective:
		return fmt.Sprintf("%s delivered a solid %s lesson in %s with clear structure and a supportive climate; a few routines could push student thinking further.", meta.TeacherName, meta.LessonType, meta.Subject)
	case BandDeveloping:
		return fmt.Sprintf("%s's %s lesson in %s showed promising moments alongside uneven pacing and participation; targeted routines would lift it quickly.", meta.TeacherName, meta.LessonType, meta.Subject)
	default:
		return fmt.Sprintf("%s's %s lesson in %s struggled with clarity and engagement throughout; the next steps below focus on the fundamentals first.", meta.TeacherName, meta.LessonType, meta.Subject)
	}
}

func strengthPool(meta schema.LessonMetadata) []string {
	return []string{
		fmt.Sprintf("Instructions during the %s phases were concise and audible to the whole room.", meta.LessonType),
		fmt.Sprintf("Questions connected %s content to things students already knew.", meta.Subject),
		fmt.Sprintf("The pace suited %s learners, with enough repetition without stalling.", meta.AgeGroup),
		"Student mistakes were handled warmly and used as teaching material.",
		"Checks for understanding appeared at every major transition.",
	}
}

func growthPool(meta schema.LessonMetadata) []string {
	return []string{
		"Broaden participation beyond the most vocal students.",
		fmt.Sprintf("Increase the share of open-ended %s questions that require reasoning, not recall.", meta.Subject),
		"Lengthen wait time after questions before accepting answers.",
		fmt.Sprintf("Make the lesson goal explicit at the start of each %s session.", meta.LessonType),
		"Let students summarize key points instead of the teacher closing every segment.",
	}
}

func nextStepPool(meta schema.LessonMetadata) []string {
	return []string{
		"Next lesson: cold-call at least five non-volunteer students by name.",
		fmt.Sprintf("Next lesson: prepare three 'why' questions about the %s content in advance and ask them verbatim.", meta.Subject),
		"Next lesson: state the learning goal in student language within the first two minutes.",
		fmt.Sprintf("Over the next 4–6 weeks: build one open-ended %s task per week and track who contributes.", meta.Subject),
		"Over the next 4–6 weeks: record one lesson segment weekly and review your talk-to-listen ratio.",
		fmt.Sprintf("Over the next 4–6 weeks: introduce structured pair-shares suited to %s before whole-class discussion.", meta.AgeGroup),
	}
}
