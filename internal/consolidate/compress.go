package consolidate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-mem/meridian/internal/episode"
)

const minCompressGroupSize = 2

// CompressEpisodes selects completed episodes older than olderThan
// relative to now, clusters them by task similarity, and emits one
// Summary per group of size >= 2.
func CompressEpisodes(episodes []episode.Episode, olderThan time.Duration, now time.Time) (*CompressEpisodesReport, []Summary) {
	cutoff := now.Add(-olderThan)

	eligible := make([]episode.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Status == episode.RecordStatusCompleted && ep.StartedAt.Before(cutoff) {
			eligible = append(eligible, ep)
		}
	}

	var summaries []Summary
	compressedCount := 0
	originalSize := 0
	compressedSize := 0

	for _, group := range clusterByTask(eligible) {
		originalSize += estimateEpisodeGroupSize(group)
		if len(group) < minCompressGroupSize {
			continue
		}

		summary := summarizeEpisodeGroup(group, now)
		summaries = append(summaries, summary)
		compressedCount += len(group)
		compressedSize += len(summary.Content)
	}

	ratio := 0.0
	if originalSize > 0 {
		ratio = float64(compressedSize) / float64(originalSize)
	}

	report := &CompressEpisodesReport{
		EpisodesProcessed:       len(eligible),
		EpisodesCompressed:      compressedCount,
		SemanticMemoriesCreated: len(summaries),
		SpaceSavedBytes:         int64(originalSize - compressedSize),
		CompressionRatio:        ratio,
	}

	return report, summaries
}

func estimateEpisodeGroupSize(group []episode.Episode) int {
	size := 0
	for _, ep := range group {
		size += len(ep.Task)
		for _, a := range ep.Actions {
			size += len(a.Description)
		}
	}
	return size
}

func summarizeEpisodeGroup(group []episode.Episode, now time.Time) Summary {
	successCount := 0
	fileCounts := make(map[string]int)
	var fileOrder []string
	queryCounts := make(map[string]int)
	var queryOrder []string
	var successfulPaths []string

	for _, ep := range group {
		if ep.Outcome == nil {
			continue
		}
		if ep.Outcome.Status == episode.StatusSuccess {
			successCount++
			if len(successfulPaths) < 3 {
				successfulPaths = append(successfulPaths, solutionPath(ep))
			}
		}
		for _, f := range ep.Outcome.FilesModified {
			if fileCounts[f] == 0 {
				fileOrder = append(fileOrder, f)
			}
			fileCounts[f]++
		}
		for _, a := range ep.Actions {
			if a.Kind == episode.ActionQuery || a.Kind == episode.ActionCodeSearch {
				if queryCounts[a.Description] == 0 {
					queryOrder = append(queryOrder, a.Description)
				}
				queryCounts[a.Description]++
			}
		}
	}

	successRate := 0.0
	if len(group) > 0 {
		successRate = float64(successCount) / float64(len(group))
	}

	topFiles := topByCount(fileOrder, fileCounts, 5)
	topQueries := topByCount(queryOrder, queryCounts, 5)

	var b strings.Builder
	fmt.Fprintf(&b, "Success rate: %.0f%%\n", successRate*100)
	fmt.Fprintf(&b, "Common files: %s\n", strings.Join(topFiles, ", "))
	fmt.Fprintf(&b, "Common queries: %s\n", strings.Join(topQueries, ", "))
	for i, path := range successfulPaths {
		fmt.Fprintf(&b, "Solution path %d: %s\n", i+1, path)
	}

	return Summary{
		ID:          "summary-" + uuid.New().String(),
		Title:       fmt.Sprintf("Consolidated %d episodes: %s", len(group), group[0].Task),
		Content:     b.String(),
		SourceCount: len(group),
		CreatedAt:   now,
	}
}

func solutionPath(ep episode.Episode) string {
	descriptions := make([]string, len(ep.Actions))
	for i, a := range ep.Actions {
		descriptions[i] = string(a.Kind)
	}
	return strings.Join(descriptions, " -> ")
}

func topByCount(order []string, counts map[string]int, limit int) []string {
	items := append([]string(nil), order...)
	sort.SliceStable(items, func(i, j int) bool {
		return counts[items[i]] > counts[items[j]]
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
