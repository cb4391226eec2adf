package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mem/meridian/internal/episode"
)

func ep(task string, status episode.Status, descriptions ...string) episode.Episode {
	actions := make([]episode.Action, len(descriptions))
	for i, d := range descriptions {
		actions[i] = episode.Action{Kind: episode.ActionCodeSearch, Description: d}
	}
	return episode.Episode{
		ID:      task + "-id",
		Task:    task,
		Actions: actions,
		Outcome: &episode.Outcome{Status: status},
	}
}

func TestExtractSolutionPatterns_EmitsCommonStepsAboveSuccessThreshold(t *testing.T) {
	episodes := []episode.Episode{
		ep("fix the login bug in auth module", episode.StatusSuccess, "search code", "edit file", "run tests"),
		ep("fix the login bug in session module", episode.StatusSuccess, "search code", "edit file", "run build"),
	}

	learnings := ExtractLearnings(episodes)

	var found bool
	for _, l := range learnings {
		if l.Category == CategorySolutionPattern {
			found = true
			assert.Contains(t, l.Pattern, "search code")
			assert.Contains(t, l.Pattern, "edit file")
			assert.Contains(t, l.Pattern, "from 2 episodes")
		}
	}
	assert.True(t, found)
}

func TestExtractSolutionPatterns_SkippedBelowSuccessRateThreshold(t *testing.T) {
	episodes := []episode.Episode{
		ep("refactor the parser module", episode.StatusFailure, "search code"),
		ep("refactor the parser again", episode.StatusFailure, "search code"),
	}

	learnings := ExtractLearnings(episodes)
	for _, l := range learnings {
		assert.NotEqual(t, CategorySolutionPattern, l.Category)
	}
}

func TestExtractWorkflows_RequiresMinimumBucketSize(t *testing.T) {
	episodes := []episode.Episode{
		{ID: "a", Task: "task a", Actions: []episode.Action{{Kind: episode.ActionBuild}, {Kind: episode.ActionCommit}}},
		{ID: "b", Task: "task b", Actions: []episode.Action{{Kind: episode.ActionBuild}, {Kind: episode.ActionCommit}}},
		{ID: "c", Task: "task c", Actions: []episode.Action{{Kind: episode.ActionBuild}, {Kind: episode.ActionCommit}}},
	}

	learnings := ExtractLearnings(episodes)

	var workflow *Learning
	for i := range learnings {
		if learnings[i].Category == CategoryWorkflow {
			workflow = &learnings[i]
		}
	}
	require.NotNil(t, workflow)
	assert.Equal(t, workflowConfidence, workflow.Confidence)
}

func TestExtractAntiPatterns_ConfidenceIsBucketFractionOfTotal(t *testing.T) {
	episodes := []episode.Episode{
		{ID: "a", Task: "deploy to prod", Outcome: &episode.Outcome{Status: episode.StatusFailure, FilesModified: []string{"deploy.yaml"}}},
		{ID: "b", Task: "deploy to prod again", Outcome: &episode.Outcome{Status: episode.StatusFailure, FilesModified: []string{"deploy.yaml"}}},
		{ID: "c", Task: "unrelated success", Outcome: &episode.Outcome{Status: episode.StatusSuccess}},
		{ID: "d", Task: "unrelated success too", Outcome: &episode.Outcome{Status: episode.StatusSuccess}},
	}

	learnings := ExtractLearnings(episodes)

	var antiPattern *Learning
	for i := range learnings {
		if learnings[i].Category == CategoryAntiPattern {
			antiPattern = &learnings[i]
		}
	}
	require.NotNil(t, antiPattern)
	assert.InDelta(t, 0.5, antiPattern.Confidence, 0.001)
	assert.Contains(t, antiPattern.Pattern, "deploy.yaml")
}

func TestExtractLearnings_EmptyInputReturnsNothing(t *testing.T) {
	assert.Empty(t, ExtractLearnings(nil))
}
