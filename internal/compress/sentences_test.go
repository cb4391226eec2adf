package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences_SplitsOnTerminalPunctuation(t *testing.T) {
	sentences := splitSentences("First one. Second one! Third one?")
	assert.Equal(t, []string{"First one", "Second one", "Third one"}, sentences)
}

func TestSplitSentences_EmptyTextReturnsNil(t *testing.T) {
	assert.Nil(t, splitSentences("   "))
}

func TestCompressSentences_LeavesShortChunksUntouched(t *testing.T) {
	c := Chunk{Text: "One. Two. Three."}
	removed := compressSentences(&c)
	assert.Equal(t, 0, removed)
	assert.Equal(t, "One. Two. Three.", c.Text)
}

func TestCompressSentences_KeepsFirstMiddleLastForLongChunks(t *testing.T) {
	c := Chunk{Text: "First sentence. Second sentence. Third sentence. Fourth sentence. Fifth sentence."}
	removed := compressSentences(&c)

	assert.Equal(t, 2, removed)
	assert.Contains(t, c.Text, "First sentence")
	assert.Contains(t, c.Text, "Third sentence")
	assert.Contains(t, c.Text, "Fifth sentence")
	assert.NotContains(t, c.Text, "Second sentence")
	assert.NotContains(t, c.Text, "Fourth sentence")
}
