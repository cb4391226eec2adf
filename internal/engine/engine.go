// Package engine is the composition root behind cmd/meridian: it opens
// the storage backend and wires vectorindex, episode, learning, and
// consolidate against it. compress, astedit, linkextract, and evalmetrics
// are not constructed here.
package engine

import (
	"context"
	"fmt"

	"github.com/meridian-mem/meridian/internal/config"
	"github.com/meridian-mem/meridian/internal/consolidate"
	"github.com/meridian-mem/meridian/internal/episode"
	"github.com/meridian-mem/meridian/internal/learning"
	"github.com/meridian-mem/meridian/internal/storage"
	"github.com/meridian-mem/meridian/internal/vectorindex"
)

// Engine holds every core package's store/index handle opened against one
// on-disk Meridian data directory.
type Engine struct {
	cfg *config.Config

	store        *storage.Store
	index        *vectorindex.Index
	recorder     *episode.Recorder
	learnings    *learning.Store
	consolidator *consolidate.Consolidator
}

// Open opens (creating if absent) the storage backend at cfg.Storage.Path
// and constructs every core package against it.
func Open(cfg *config.Config) (*Engine, error) {
	store, err := storage.Open(cfg.Storage.Path, cfg.Storage.CacheMB)
	if err != nil {
		return nil, fmt.Errorf("engine: open storage: %w", err)
	}

	index, err := vectorindex.New(vectorindex.Config{
		Dimensions:       cfg.VectorIndex.Dimensions,
		Metric:           vectorindex.Metric(cfg.VectorIndex.Metric),
		M:                cfg.VectorIndex.M,
		EfConstruction:   cfg.VectorIndex.EfConstruction,
		EfSearch:         cfg.VectorIndex.EfSearch,
		RebuildThreshold: cfg.VectorIndex.RebuildThreshold,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("engine: open vector index: %w", err)
	}

	return &Engine{
		cfg:          cfg,
		store:        store,
		index:        index,
		recorder:     episode.NewRecorder(store),
		learnings:    learning.NewStore(store),
		consolidator: consolidate.NewConsolidator(store),
	}, nil
}

// Close releases every open handle.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the shared document/state store for direct access.
func (e *Engine) Store() *storage.Store { return e.store }

// Index exposes the vector index for direct insert/search access.
func (e *Engine) Index() *vectorindex.Index { return e.index }

// Recorder exposes the episode recorder.
func (e *Engine) Recorder() *episode.Recorder { return e.recorder }

// Learnings exposes the semantic-memory store.
func (e *Engine) Learnings() *learning.Store { return e.learnings }

// Consolidator exposes the consolidation/checkpoint API.
func (e *Engine) Consolidator() *consolidate.Consolidator { return e.consolidator }

// Search runs a k-nearest-neighbor query against the vector index.
func (e *Engine) Search(query []float32, k int) ([]vectorindex.Result, error) {
	return e.index.Search(query, k)
}

// Stats reports a snapshot of every core package's live counts.
type Stats struct {
	VectorIndex       vectorindex.Stats
	EpisodeCount      int
	CompletedEpisodes int
	LearningCount     int
	SummaryCount      int
	CheckpointCount   int
}

// Stats gathers a Stats snapshot. It is read-only and safe to call
// concurrently with inserts/searches.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	episodes, err := e.recorder.ListEpisodes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("engine: list episodes: %w", err)
	}
	completed, err := e.recorder.ListCompletedEpisodes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("engine: list completed episodes: %w", err)
	}
	learnings, err := e.learnings.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("engine: list learnings: %w", err)
	}
	summaries, err := e.consolidator.ListSummaries(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("engine: list summaries: %w", err)
	}
	checkpoints, err := e.consolidator.ListCheckpoints(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("engine: list checkpoints: %w", err)
	}

	return Stats{
		VectorIndex:       e.index.Stats(),
		EpisodeCount:      len(episodes),
		CompletedEpisodes: len(completed),
		LearningCount:     len(learnings),
		SummaryCount:      len(summaries),
		CheckpointCount:   len(checkpoints),
	}, nil
}
