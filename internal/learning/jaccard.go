package learning

import "strings"

// jaccardSimilarity is whitespace-tokenized, lowercased word-set Jaccard,
// the similarity used by task clustering. Relevance scoring uses
// keywordOverlapRatio instead.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

// keywordOverlapRatio is the fraction of pattern's keywords also present
// in task: |pattern ∩ task| / |pattern|. Used by apply_learning and
// find_relevant_learnings, where the pattern text is the fixed side
// being matched against a variable context.
func keywordOverlapRatio(pattern, task string) float64 {
	patternWords := wordSet(pattern)
	if len(patternWords) == 0 {
		return 0
	}
	taskWords := wordSet(task)

	overlap := 0
	for w := range patternWords {
		if _, ok := taskWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(patternWords))
}
