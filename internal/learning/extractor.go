package learning

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-mem/meridian/internal/episode"
)

const (
	minSolutionGroupSize   = 2
	minSolutionSuccessRate = 0.7
	commonStepThreshold    = 0.7
	minWorkflowBucketSize  = 3
	workflowConfidence     = 0.8
	minAntiPatternBucket   = 2
)

// ExtractLearnings mines SolutionPattern, Workflow, and AntiPattern
// learnings from a set of completed episodes.
func ExtractLearnings(episodes []episode.Episode) []Learning {
	var learnings []Learning
	learnings = append(learnings, extractSolutionPatterns(episodes)...)
	learnings = append(learnings, extractWorkflows(episodes)...)
	learnings = append(learnings, extractAntiPatterns(episodes)...)
	return learnings
}

func extractSolutionPatterns(episodes []episode.Episode) []Learning {
	var learnings []Learning

	for _, group := range clusterByTask(episodes) {
		if len(group) < minSolutionGroupSize {
			continue
		}
		if successRate(group) < minSolutionSuccessRate {
			continue
		}

		steps := commonActionDescriptions(group)
		if len(steps) == 0 {
			continue
		}

		text := fmt.Sprintf("Common steps: %s (from %d episodes)", strings.Join(steps, " -> "), len(group))
		learnings = append(learnings, newLearning(text, CategorySolutionPattern, 1.0, episodeIDs(group)))
	}

	return learnings
}

func extractWorkflows(episodes []episode.Episode) []Learning {
	buckets := make(map[string][]episode.Episode)
	var order []string

	for _, ep := range episodes {
		key := actionKindSequenceKey(ep)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], ep)
	}

	var learnings []Learning
	for _, key := range order {
		members := buckets[key]
		if len(members) < minWorkflowBucketSize {
			continue
		}
		text := fmt.Sprintf("Recurring workflow: %s", strings.ReplaceAll(key, "|", " -> "))
		learnings = append(learnings, newLearning(text, CategoryWorkflow, workflowConfidence, episodeIDs(members)))
	}

	return learnings
}

func extractAntiPatterns(episodes []episode.Episode) []Learning {
	failed := make([]episode.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Outcome != nil && ep.Outcome.Status == episode.StatusFailure {
			failed = append(failed, ep)
		}
	}
	if len(episodes) == 0 {
		return nil
	}

	buckets := make(map[string][]episode.Episode)
	var order []string
	for _, ep := range failed {
		key := failureKey(ep)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], ep)
	}

	var learnings []Learning
	for _, key := range order {
		members := buckets[key]
		if len(members) < minAntiPatternBucket {
			continue
		}
		confidence := float64(len(members)) / float64(len(episodes))
		learnings = append(learnings, newLearning(key, CategoryAntiPattern, confidence, episodeIDs(members)))
	}

	return learnings
}

func failureKey(ep episode.Episode) string {
	if len(ep.Outcome.FilesModified) > 0 {
		return fmt.Sprintf("Failed after modifying %s", ep.Outcome.FilesModified[0])
	}
	return fmt.Sprintf("Failed: %s", ep.Task)
}

func actionKindSequenceKey(ep episode.Episode) string {
	kinds := make([]string, len(ep.Actions))
	for i, a := range ep.Actions {
		kinds[i] = string(a.Kind)
	}
	return strings.Join(kinds, "|")
}

// commonActionDescriptions returns, in first-seen order, the action
// descriptions that appear in at least commonStepThreshold of the
// group's episodes.
func commonActionDescriptions(group []episode.Episode) []string {
	counts := make(map[string]int)
	var order []string

	for _, ep := range group {
		seenInEpisode := make(map[string]bool)
		for _, a := range ep.Actions {
			if a.Description == "" || seenInEpisode[a.Description] {
				continue
			}
			seenInEpisode[a.Description] = true
			if counts[a.Description] == 0 {
				order = append(order, a.Description)
			}
			counts[a.Description]++
		}
	}

	threshold := float64(len(group)) * commonStepThreshold
	var steps []string
	for _, desc := range order {
		if float64(counts[desc]) >= threshold {
			steps = append(steps, desc)
		}
	}
	return steps
}

func successRate(group []episode.Episode) float64 {
	if len(group) == 0 {
		return 0
	}
	sum := 0.0
	for _, ep := range group {
		if ep.Outcome != nil {
			switch ep.Outcome.Status {
			case episode.StatusSuccess:
				sum += 1.0
			case episode.StatusPartial:
				sum += 0.5
			}
		}
	}
	return sum / float64(len(group))
}

func episodeIDs(episodes []episode.Episode) []string {
	ids := make([]string, len(episodes))
	for i, ep := range episodes {
		ids[i] = ep.ID
	}
	return ids
}

func newLearning(pattern string, category Category, confidence float64, episodeIDs []string) Learning {
	return Learning{
		ID:           "learning-" + uuid.New().String(),
		Pattern:      pattern,
		Confidence:   confidence,
		Episodes:     episodeIDs,
		Applications: len(episodeIDs),
		Category:     category,
		CreatedAt:    time.Now(),
	}
}
