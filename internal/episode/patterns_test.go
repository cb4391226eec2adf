package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEpisode(task string, status Status, kinds ...ActionKind) Episode {
	actions := make([]Action, len(kinds))
	for i, k := range kinds {
		actions[i] = Action{Kind: k, Timestamp: time.Now()}
	}
	return Episode{
		ID:      task + "-id",
		Task:    task,
		Actions: actions,
		Outcome: &Outcome{Status: status},
	}
}

func TestExtractPatterns_GroupsIdenticalActionSequences(t *testing.T) {
	episodes := []Episode{
		makeEpisode("fix the failing login test", StatusSuccess, ActionCodeSearch, ActionFileEdit),
		makeEpisode("fix another failing test", StatusSuccess, ActionCodeSearch, ActionFileEdit),
		makeEpisode("fix the timeout test case", StatusSuccess, ActionCodeSearch, ActionFileEdit),
	}

	patterns := ExtractPatterns(episodes)
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].Frequency)
	assert.Equal(t, 1.0, patterns[0].SuccessRate)
	assert.Equal(t, []ActionKind{ActionCodeSearch, ActionFileEdit}, patterns[0].ActionSequence)
}

func TestExtractPatterns_DropsGroupsBelowMinimumFrequency(t *testing.T) {
	episodes := []Episode{
		makeEpisode("one off task", StatusSuccess, ActionBuild, ActionCommit),
	}

	patterns := ExtractPatterns(episodes)
	assert.Empty(t, patterns)
}

func TestExtractPatterns_ComputesMixedSuccessRate(t *testing.T) {
	episodes := []Episode{
		makeEpisode("run the build pipeline", StatusSuccess, ActionBuild),
		makeEpisode("run the build again", StatusFailure, ActionBuild),
	}

	patterns := ExtractPatterns(episodes)
	require.Len(t, patterns, 1)
	assert.Equal(t, 0.5, patterns[0].SuccessRate)
}

func TestExtractPatterns_SortsByFrequencyTimesSuccessRateDescending(t *testing.T) {
	episodes := []Episode{
		makeEpisode("search and read code", StatusSuccess, ActionCodeSearch, ActionFileRead),
		makeEpisode("search and read again", StatusSuccess, ActionCodeSearch, ActionFileRead),
		makeEpisode("build and commit one", StatusSuccess, ActionBuild, ActionCommit),
		makeEpisode("build and commit two", StatusSuccess, ActionBuild, ActionCommit),
		makeEpisode("build and commit three", StatusSuccess, ActionBuild, ActionCommit),
	}

	patterns := ExtractPatterns(episodes)
	require.Len(t, patterns, 2)
	assert.Equal(t, 3, patterns[0].Frequency)
	assert.Equal(t, 2, patterns[1].Frequency)
}

func TestExtractPatterns_ContextMarkersAreStopWordFilteredAndLowercased(t *testing.T) {
	episodes := []Episode{
		makeEpisode("Fix the Authentication Bug in the Login Flow", StatusSuccess, ActionCodeSearch, ActionFileEdit),
		makeEpisode("Fix the Authentication issue again today", StatusSuccess, ActionCodeSearch, ActionFileEdit),
	}

	patterns := ExtractPatterns(episodes)
	require.Len(t, patterns, 1)
	assert.Contains(t, patterns[0].ContextMarkers, "authentication")
	assert.NotContains(t, patterns[0].ContextMarkers, "the")
	assert.NotContains(t, patterns[0].ContextMarkers, "in")
}

func TestExtractPatterns_EmptyInputReturnsNoPatterns(t *testing.T) {
	patterns := ExtractPatterns(nil)
	assert.Empty(t, patterns)
}
