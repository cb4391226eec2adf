package learning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mem/meridian/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := storage.Open(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewStore(st)
}

func TestStore_PutThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := Learning{ID: "l1", Pattern: "fix bug", Confidence: 0.5, Category: CategorySolutionPattern, CreatedAt: time.Now()}
	require.NoError(t, s.Put(ctx, l))

	got, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "fix bug", got.Pattern)
}

func TestStore_GetUnknownIDIsReported(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestUpdateConfidence_RunningAverageOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := Learning{ID: "l1", Pattern: "fix bug", Confidence: 1.0, Applications: 1, Category: CategorySolutionPattern, CreatedAt: time.Now()}
	require.NoError(t, s.Put(ctx, l))

	updated, err := s.UpdateConfidence(ctx, "l1", false)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, updated.Confidence, 0.001)
	assert.Equal(t, 2, updated.Applications)
	assert.NotNil(t, updated.LastApplied)
}

func TestFindRelevantLearnings_DropsBelowMinimumScoreAndSortsDescending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Learning{ID: "strong", Pattern: "fix authentication login bug", Confidence: 0.9, Category: CategorySolutionPattern, CreatedAt: time.Now()}))
	require.NoError(t, s.Put(ctx, Learning{ID: "weak", Pattern: "unrelated database migration topic", Confidence: 0.9, Category: CategorySolutionPattern, CreatedAt: time.Now()}))

	results, err := s.FindRelevantLearnings(ctx, "please fix the authentication bug today", 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "strong", results[0].ID)
}

func TestFindRelevantLearnings_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, Learning{
			ID:         "l" + string(rune('a'+i)),
			Pattern:    "fix authentication bug",
			Confidence: 0.9,
			Category:   CategorySolutionPattern,
			CreatedAt:  time.Now(),
		}))
	}

	results, err := s.FindRelevantLearnings(ctx, "fix authentication bug", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
