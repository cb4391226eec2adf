package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-mem/meridian/internal/config"
	"github.com/meridian-mem/meridian/internal/episode"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "meridian.db")
	cfg.VectorIndex.Dimensions = 4

	e, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestOpen_WiresEveryCorePackage(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Store())
	require.NotNil(t, e.Index())
	require.NotNil(t, e.Recorder())
	require.NotNil(t, e.Learnings())
	require.NotNil(t, e.Consolidator())
}

func TestSearch_FindsInsertedVector(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Index().Insert("doc-1", []float32{1, 0, 0, 0}))
	require.NoError(t, e.Index().Insert("doc-2", []float32{0, 1, 0, 0}))

	results, err := e.Search([]float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "doc-1", results[0].DocID)
}

func TestStats_ReflectsInsertedData(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Index().Insert("doc-1", []float32{1, 0, 0, 0}))

	h, err := e.Recorder().StartEpisode(ctx, "fix bug", episode.Context{})
	require.NoError(t, err)
	_, err = e.Recorder().CompleteEpisode(ctx, h, episode.Outcome{Status: episode.StatusSuccess}, nil)
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.VectorIndex.TotalVectors)
	require.Equal(t, 1, stats.EpisodeCount)
	require.Equal(t, 1, stats.CompletedEpisodes)
}
