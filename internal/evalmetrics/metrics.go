// Package evalmetrics computes canonical information-retrieval metrics
// over ranked result sets and aggregates them across queries and over
// time.
package evalmetrics

import "math"

// QueryResult is one query's evaluation input: the ranked list retrieved,
// the ground-truth relevant set, and optional graded relevance scores.
type QueryResult struct {
	Retrieved []string
	Relevant  map[string]bool
	Scores    map[string]float64
}

// PrecisionAtK computes |retrieved[:K] ∩ relevant| / min(K, len(retrieved)).
func PrecisionAtK(q QueryResult, k int) float64 {
	top := truncate(q.Retrieved, k)
	if len(top) == 0 {
		return 0
	}
	hits := countRelevant(top, q.Relevant)
	denom := k
	if len(q.Retrieved) < k {
		denom = len(q.Retrieved)
	}
	if denom == 0 {
		return 0
	}
	return float64(hits) / float64(denom)
}

// RecallAtK computes |retrieved[:K] ∩ relevant| / |relevant|, 0 if relevant is empty.
func RecallAtK(q QueryResult, k int) float64 {
	if len(q.Relevant) == 0 {
		return 0
	}
	top := truncate(q.Retrieved, k)
	hits := countRelevant(top, q.Relevant)
	return float64(hits) / float64(len(q.Relevant))
}

// F1AtK computes the harmonic mean of PrecisionAtK and RecallAtK, 0 when both are 0.
func F1AtK(q QueryResult, k int) float64 {
	p := PrecisionAtK(q, k)
	r := RecallAtK(q, k)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// MRR computes 1/(rank of first relevant document), 0 if none found.
func MRR(q QueryResult) float64 {
	for i, doc := range q.Retrieved {
		if q.Relevant[doc] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision computes (1/|relevant|) * sum of PrecisionAtK at every
// rank where the retrieved document is relevant.
func AveragePrecision(q QueryResult) float64 {
	if len(q.Relevant) == 0 {
		return 0
	}
	sum := 0.0
	for i, doc := range q.Retrieved {
		if q.Relevant[doc] {
			sum += PrecisionAtK(q, i+1)
		}
	}
	return sum / float64(len(q.Relevant))
}

// DCGAtK computes sum_{i=1..K} (2^rel(i) - 1) / log2(i+1). With binary
// relevance rel is 1 for a relevant document and 0 otherwise; with graded
// relevance rel is q.Scores[doc] (0 if absent).
func DCGAtK(q QueryResult, k int) float64 {
	top := truncate(q.Retrieved, k)
	sum := 0.0
	for i, doc := range top {
		rel := relevance(q, doc)
		sum += (math.Pow(2, rel) - 1) / math.Log2(float64(i+2))
	}
	return sum
}

// NDCGAtK computes DCGAtK / IDCGAtK, where IDCGAtK is DCG on the ideal
// ordering (relevant documents sorted by graded score descending).
// Returns 0 when IDCG is 0.
func NDCGAtK(q QueryResult, k int) float64 {
	idcg := idealDCGAtK(q, k)
	if idcg == 0 {
		return 0
	}
	return DCGAtK(q, k) / idcg
}

func relevance(q QueryResult, doc string) float64 {
	if q.Scores != nil {
		if s, ok := q.Scores[doc]; ok {
			return s
		}
		return 0
	}
	if q.Relevant[doc] {
		return 1
	}
	return 0
}

func idealDCGAtK(q QueryResult, k int) float64 {
	var ranked []string
	for doc := range q.Relevant {
		ranked = append(ranked, doc)
	}
	sortByRelevanceDesc(ranked, q)

	ideal := QueryResult{Retrieved: ranked, Relevant: q.Relevant, Scores: q.Scores}
	return DCGAtK(ideal, k)
}

func sortByRelevanceDesc(docs []string, q QueryResult) {
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && relevance(q, docs[j]) > relevance(q, docs[j-1]); j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}

func truncate(docs []string, k int) []string {
	if k < 0 {
		k = 0
	}
	if k > len(docs) {
		k = len(docs)
	}
	return docs[:k]
}

func countRelevant(docs []string, relevant map[string]bool) int {
	count := 0
	for _, d := range docs {
		if relevant[d] {
			count++
		}
	}
	return count
}
