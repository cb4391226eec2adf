// Package compress implements Meridian's context compression pipeline: a
// bag of scored chunks goes in, a single token-budgeted text blob comes
// out, biased toward relevance, coherence, and non-redundancy, staged as
// a relevance filter, a redundancy filter, then a budget-sort pass.
package compress

import (
	"fmt"
	"sort"
	"strings"

	merr "github.com/meridian-mem/meridian/internal/errors"
)

// Chunk is one scored unit of retrieved context.
type Chunk struct {
	SourceID       string
	Text           string
	RelevanceScore float64
	Position       int
	TokenCount     int
	Embedding      []float32
}

// Config tunes the compression pipeline. Mirrors
// config.CompressorConfig; kept as its own type so this package has no
// dependency on internal/config.
type Config struct {
	TargetTokenBudget         int
	MinRelevanceThreshold     float64
	EnableRedundancyRemoval   bool
	RedundancyThreshold       float64
	EnableSentenceCompression bool
	PreserveBoundaries        bool
}

// CompressedContext is the pipeline's output.
type CompressedContext struct {
	Text                      string
	CompressionRatio          float64
	ChunksIncluded            int
	TokensUsed                int
	ChunksRemovedByRelevance  int
	ChunksRemovedByRedundancy int
	SentencesCompressed       int
}

// EstimateTokens is the deterministic token-count proxy: four characters
// per token, floored at 1 for any non-empty text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if n := len(text) / 4; n > 0 {
		return n
	}
	return 1
}

// Compress runs the five-stage pipeline and reconstructs a single text
// blob from whatever survives.
func Compress(chunks []Chunk, cfg Config) (*CompressedContext, error) {
	originalSize := 0
	for i := range chunks {
		if chunks[i].TokenCount <= 0 {
			chunks[i].TokenCount = EstimateTokens(chunks[i].Text)
		}
		originalSize += chunks[i].TokenCount
	}

	relevant, removedByRelevance := filterByRelevance(chunks, cfg.MinRelevanceThreshold)

	var removedByRedundancy int
	if cfg.EnableRedundancyRemoval {
		relevant, removedByRedundancy = removeRedundant(relevant, cfg.RedundancyThreshold)
	}

	sortByRelevanceThenPosition(relevant)

	admitted := enforceBudget(relevant, cfg.TargetTokenBudget)
	if len(admitted) == 0 && len(relevant) > 0 {
		return nil, merr.Budget(fmt.Sprintf(
			"target_token_budget %d is below the smallest surviving chunk; no chunk could be admitted",
			cfg.TargetTokenBudget))
	}

	sentencesCompressed := 0
	if cfg.EnableSentenceCompression {
		for i := range admitted {
			if n := compressSentences(&admitted[i]); n > 0 {
				sentencesCompressed += n
			}
		}
	}

	text := reconstruct(admitted, cfg.PreserveBoundaries)

	tokensUsed := 0
	for _, c := range admitted {
		tokensUsed += c.TokenCount
	}

	ratio := 1.0
	if originalSize > 0 {
		floor := tokensUsed
		if floor < 1 {
			floor = 1
		}
		ratio = float64(originalSize) / float64(floor)
	}

	return &CompressedContext{
		Text:                      text,
		CompressionRatio:          ratio,
		ChunksIncluded:            len(admitted),
		TokensUsed:                tokensUsed,
		ChunksRemovedByRelevance:  removedByRelevance,
		ChunksRemovedByRedundancy: removedByRedundancy,
		SentencesCompressed:       sentencesCompressed,
	}, nil
}

func filterByRelevance(chunks []Chunk, threshold float64) ([]Chunk, int) {
	kept := make([]Chunk, 0, len(chunks))
	removed := 0
	for _, c := range chunks {
		if c.RelevanceScore < threshold {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

func removeRedundant(chunks []Chunk, threshold float64) ([]Chunk, int) {
	retained := make([]Chunk, 0, len(chunks))
	removed := 0

	for _, c := range chunks {
		if isSimilarToAny(c, retained, threshold) {
			removed++
			continue
		}
		retained = append(retained, c)
	}
	return retained, removed
}

func isSimilarToAny(c Chunk, retained []Chunk, threshold float64) bool {
	for _, r := range retained {
		similarity := chunkSimilarity(c, r)
		if similarity >= threshold {
			return true
		}
	}
	return false
}

func chunkSimilarity(a, b Chunk) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		return cosineSimilarity(a.Embedding, b.Embedding)
	}
	return jaccardSimilarity(a.Text, b.Text)
}

func sortByRelevanceThenPosition(chunks []Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].RelevanceScore != chunks[j].RelevanceScore {
			return chunks[i].RelevanceScore > chunks[j].RelevanceScore
		}
		return chunks[i].Position < chunks[j].Position
	})
}

func enforceBudget(chunks []Chunk, budget int) []Chunk {
	admitted := make([]Chunk, 0, len(chunks))
	used := 0
	for _, c := range chunks {
		if used+c.TokenCount > budget {
			continue
		}
		admitted = append(admitted, c)
		used += c.TokenCount
	}
	return admitted
}

func reconstruct(chunks []Chunk, preserveBoundaries bool) string {
	if len(chunks) == 0 {
		return ""
	}

	if !preserveBoundaries {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		return strings.Join(texts, "\n\n")
	}

	var order []string
	grouped := make(map[string][]string)
	for _, c := range chunks {
		if _, seen := grouped[c.SourceID]; !seen {
			order = append(order, c.SourceID)
		}
		grouped[c.SourceID] = append(grouped[c.SourceID], c.Text)
	}

	groups := make([]string, 0, len(order))
	for _, sourceID := range order {
		header := fmt.Sprintf("# Source: %s", sourceID)
		body := strings.Join(grouped[sourceID], "\n\n")
		groups = append(groups, header+"\n\n"+body)
	}

	return strings.Join(groups, "\n\n---\n\n")
}
