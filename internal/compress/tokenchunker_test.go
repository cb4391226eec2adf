package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenChunker_EmptyTextReturnsNoChunks(t *testing.T) {
	chunks := TokenChunker("", TokenChunkerConfig{ChunkSizeTokens: 50})
	assert.Empty(t, chunks)
}

func TestTokenChunker_ShortTextFitsInOneChunk(t *testing.T) {
	chunks := TokenChunker("One sentence. Another sentence.", TokenChunkerConfig{ChunkSizeTokens: 512})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestTokenChunker_SplitsAcrossBudget(t *testing.T) {
	sentence := strings.Repeat("word ", 10) + "end."
	text := strings.Repeat(sentence+" ", 10)

	chunks := TokenChunker(text, TokenChunkerConfig{ChunkSizeTokens: 20})
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
	}
}

func TestTokenChunker_CarriesOverlapSentencesBetweenChunks(t *testing.T) {
	sentences := []string{
		"Sentence number one is here.",
		"Sentence number two follows.",
		"Sentence number three arrives.",
		"Sentence number four shows up.",
		"Sentence number five closes things.",
	}
	text := strings.Join(sentences, " ")

	chunks := TokenChunker(text, TokenChunkerConfig{ChunkSizeTokens: 12})
	require.Greater(t, len(chunks), 1)

	firstChunkLastSentence := "Sentence number two follows"
	assert.Contains(t, chunks[0].Text, firstChunkLastSentence)
	assert.Contains(t, chunks[1].Text, firstChunkLastSentence)
}

func TestTokenChunker_DefaultsBudgetWhenUnset(t *testing.T) {
	chunks := TokenChunker("A short sentence.", TokenChunkerConfig{})
	require.Len(t, chunks, 1)
}
