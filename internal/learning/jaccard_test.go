package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccardSimilarity_IdenticalTextIsOne(t *testing.T) {
	assert.Equal(t, 1.0, jaccardSimilarity("fix the bug", "fix the bug"))
}

func TestJaccardSimilarity_DisjointTextIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccardSimilarity("fix the bug", "write new docs"))
}

func TestJaccardSimilarity_EmptyInputIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccardSimilarity("", "anything"))
}

func TestKeywordOverlapRatio_FractionOfPatternWordsFound(t *testing.T) {
	ratio := keywordOverlapRatio("fix authentication bug", "please fix the authentication issue")
	assert.InDelta(t, 2.0/3.0, ratio, 0.001)
}

func TestKeywordOverlapRatio_EmptyPatternIsZero(t *testing.T) {
	assert.Equal(t, 0.0, keywordOverlapRatio("", "some task"))
}
