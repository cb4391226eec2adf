package vectorindex

import (
	"math"

	"github.com/coder/hnsw"
)

// Metric identifies the similarity measure an Index was built with.
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricEuclidean  Metric = "euclidean"
	MetricDotProduct Metric = "dotproduct"
)

// dotProductDistance fills a gap in coder/hnsw, which only ships cosine
// and euclidean. Nearest-neighbor search wants smaller-is-closer, so the
// graph is built on negative dot product; the true dot is recomputed for
// the score returned to the caller.
func dotProductDistance(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return -dot
}

func distanceFuncFor(m Metric) func(a, b []float32) float32 {
	switch m {
	case MetricEuclidean:
		return hnsw.EuclideanDistance
	case MetricDotProduct:
		return dotProductDistance
	default:
		return hnsw.CosineDistance
	}
}

// scoreFromDistance converts a raw graph distance into the "higher is
// better" score spec promises regardless of metric.
func scoreFromDistance(distance float32, m Metric) float32 {
	switch m {
	case MetricEuclidean:
		return -distance
	case MetricDotProduct:
		return -distance // dotProductDistance already negated the dot
	default:
		return 1 - distance
	}
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

func dotProduct(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
