package compress

import (
	"regexp"
	"strings"
)

var sentenceBoundary = regexp.MustCompile(`(?:[.!?])(?:\s+|$)`)

// splitSentences is a punctuation-boundary splitter, deliberately simple:
// it does not try to special-case abbreviations or decimals before
// handing text to a downstream budget check.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	raw := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// compressSentenceThreshold is the minimum sentence count before a
// chunk is considered for first/middle/last compression.
const compressSentenceThreshold = 3

// compressSentences keeps the first, a representative middle, and the
// last sentence of chunks with more than compressSentenceThreshold
// sentences, dropping the rest. Returns the number of sentences
// removed, or 0 if the chunk was left untouched.
func compressSentences(c *Chunk) int {
	sentences := splitSentences(c.Text)
	if len(sentences) <= compressSentenceThreshold {
		return 0
	}

	mid := len(sentences) / 2
	kept := []string{sentences[0], sentences[mid], sentences[len(sentences)-1]}
	removed := len(sentences) - len(kept)

	c.Text = strings.Join(kept, " ")
	c.TokenCount = EstimateTokens(c.Text)
	return removed
}
