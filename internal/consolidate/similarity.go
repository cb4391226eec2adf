package consolidate

import "strings"

// clusterThreshold is the Jaccard similarity above which two episodes'
// task descriptions are considered related, matching the learning
// extractor's clustering threshold.
const clusterThreshold = 0.4

// jaccardSimilarity is whitespace-tokenized, lowercased word-set Jaccard.
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

// stopWords filters common function words out of topic extraction,
// mirroring the list used for episode pattern context markers.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "must": true, "shall": true, "and": true, "but": true,
	"or": true, "nor": true, "for": true, "yet": true, "so": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "by": true, "with": true,
	"from": true, "it": true, "its": true, "this": true, "that": true,
	"these": true, "those": true, "which": true, "what": true, "who": true,
	"whom": true,
}
