package schema

// SamplePayload returns the fixed fallback evaluation. It is served whenever
// a live response cannot be trusted structurally, and acts as the structural
// template for the demo generator. Each call returns a fresh copy; callers
// may mutate the result freely.
func SamplePayload() EvaluationPayload {
	return EvaluationPayload{
		LessonOverview: LessonOverview{
			TeacherName:       DefaultTeacherName,
			SchoolName:        DefaultSchoolName,
			Region:            DefaultRegion,
			AgeGroup:          DefaultAgeGroup,
			Subject:           DefaultSubject,
			LessonType:        DefaultLessonType,
			CurriculumGoal:    "Consolidate previously introduced material through guided practice.",
			OverallImpression: "The teacher ran a calm, well-structured practice lesson with clear instructions and regular checks for understanding. Student talk was present but distributed unevenly across the class.",
		},
		DomainScores: map[string]DomainScore{
			DomainInstructionalClarity: {
				Score:    NewScore(3),
				Evidence: "Instructions were stated once, then rephrased; the lesson moved through warm-up, guided practice and independent work with explicit transitions.",
				Suggestions: []string{
					"State the lesson goal explicitly at the start so students know what success looks like.",
					"Summarize key steps on a shared reference before independent work begins.",
				},
			},
			DomainCognitiveEngagement: {
				Score:    NewScore(3),
				Evidence: "Several students explained their reasoning aloud when prompted; most questions still targeted recall rather than explanation.",
				Suggestions: []string{
					"Follow correct answers with a 'how do you know?' to push for reasoning.",
					"Add one open-ended problem per lesson that admits multiple solution paths.",
				},
			},
			DomainManagementAndPacing: {
				Score:    NewScore(3),
				Evidence: "Transitions took under a minute and off-task chatter was redirected with a brief reminder; no time was lost to discipline.",
				Suggestions: []string{
					"Use a consistent audible signal for transitions to shorten them further.",
					"Announce remaining time before the end of each work phase.",
				},
			},
			DomainClimateAndTone: {
				Score:    NewScore(3),
				Evidence: "The teacher's tone stayed warm and even; student mistakes were treated as useful material rather than corrected dismissively.",
				Suggestions: []string{
					"Name specific student contributions when praising to reinforce what good work sounds like.",
					"Invite students to respond to each other rather than routing all talk through the teacher.",
				},
			},
			DomainQuestionsAndFeedback: {
				Score:    NewScore(3),
				Evidence: "Checks for understanding occurred after each example; feedback was immediate but usually limited to correct/incorrect.",
				Suggestions: []string{
					"Extend wait time after questions to three seconds before calling on anyone.",
					"Pair quick checks with one probing follow-up question per segment.",
				},
			},
			DomainEquityAndStudentVoice: {
				Score:    NewScore(2),
				Evidence: "A small group of students produced most of the audible responses; several voices were never heard during the recording.",
				Suggestions: []string{
					"Use random or rotating selection instead of volunteers for at least half the questions.",
					"Add a brief pair-share before whole-class responses so every student rehearses an answer.",
				},
			},
			DomainAgeAppropriateness: {
				Score:    NewScore(4),
				Evidence: "Vocabulary and sentence length matched the age group; new terms were introduced with concrete examples before being used in instructions.",
				Suggestions: []string{
					"Keep glossing new terminology the first few times it reappears in later lessons.",
				},
			},
			DomainSubjectPedagogy: {
				Score:    NewScore(3),
				Evidence: "Worked examples preceded independent practice and errors were used diagnostically, consistent with established practice for the subject.",
				SubjectSpecificNotes: "Procedural fluency was well supported; conceptual connections between methods were mentioned but not explored in depth.",
				Suggestions: []string{
					"Close the lesson by asking students to connect today's method to one learned earlier.",
					"Include one task where students choose the method and justify the choice.",
				},
			},
		},
		GlobalRating: GlobalRating{
			OverallBand: "Effective",
			TopStrengths: []string{
				"Clear, well-sequenced instructions that students could follow without repetition.",
				"Warm classroom climate where mistakes are treated as part of learning.",
			},
			PriorityAreas: []string{
				"Broaden participation beyond the handful of frequent responders.",
				"Raise the cognitive demand of questioning beyond recall.",
			},
			NextSteps: []string{
				"Next lesson: call on at least five different non-volunteer students.",
				"Next lesson: plan three 'why' or 'how' questions in advance and use them verbatim.",
				"Over the next 4–6 weeks: introduce a weekly open-ended task and track which students contribute to discussing it.",
			},
		},
		LimitsOfInference: LimitsOfInference{
			AudioOnlyConstraints: "Board work, written student output, seating arrangement, gestures and visual aids cannot be evaluated from audio. Pacing judgments rely on audible cues only.",
			InsufficientEvidenceDomains: []string{
				"Domains relying on visual evidence were scored solely on what the teacher verbalized.",
			},
		},
	}
}
