package learning

import "fmt"

// ApplyLearning blends a learning's stored confidence with how much its
// pattern text overlaps the context task's keywords:
// confidence' = confidence * (0.5 + 0.5 * keyword_overlap_ratio).
func ApplyLearning(l Learning, taskDescription string) Suggestion {
	overlap := keywordOverlapRatio(l.Pattern, taskDescription)
	confidence := l.Confidence * (0.5 + 0.5*overlap)

	return Suggestion{
		LearningID: l.ID,
		Text:       fmt.Sprintf("%s: %s", l.Category, l.Pattern),
		Confidence: confidence,
	}
}
