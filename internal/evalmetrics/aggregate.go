package evalmetrics

// Aggregate is the arithmetic mean of every canonical metric across a set
// of queries, at a fixed K.
type Aggregate struct {
	K            int
	PrecisionAtK float64
	RecallAtK    float64
	F1AtK        float64
	MRR          float64
	MAP          float64
	NDCGAtK      float64
	QueryCount   int
}

// AggregateResults computes the mean of every metric across results at
// the given K. Returns the zero Aggregate for an empty input.
func AggregateResults(results []QueryResult, k int) Aggregate {
	agg := Aggregate{K: k, QueryCount: len(results)}
	if len(results) == 0 {
		return agg
	}

	for _, q := range results {
		agg.PrecisionAtK += PrecisionAtK(q, k)
		agg.RecallAtK += RecallAtK(q, k)
		agg.F1AtK += F1AtK(q, k)
		agg.MRR += MRR(q)
		agg.MAP += AveragePrecision(q)
		agg.NDCGAtK += NDCGAtK(q, k)
	}

	n := float64(len(results))
	agg.PrecisionAtK /= n
	agg.RecallAtK /= n
	agg.F1AtK /= n
	agg.MRR /= n
	agg.MAP /= n
	agg.NDCGAtK /= n
	return agg
}
