package learning

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	meridianerrors "github.com/meridian-mem/meridian/internal/errors"
	"github.com/meridian-mem/meridian/internal/storage"
)

// overlapCacheSize bounds the keyword-overlap-ratio cache, a cache in
// front of a pure scoring function keyed by (learning id, task) pair.
const overlapCacheSize = 10000

// Store persists Learnings and serves relevance scoring over them.
// Overlap-ratio scoring is memoized per (learning id, task) pair since
// find_relevant_learnings recomputes it against every stored learning
// on every call with the same context.
type Store struct {
	store *storage.Store
	cache *lru.Cache[string, float64]
}

// NewStore creates a learning Store backed by store.
func NewStore(store *storage.Store) *Store {
	cache, _ := lru.New[string, float64](overlapCacheSize)
	return &Store{store: store, cache: cache}
}

// Put persists a learning, overwriting any existing record with the
// same id.
func (s *Store) Put(ctx context.Context, l Learning) error {
	data, err := json.Marshal(l)
	if err != nil {
		return meridianerrors.Internal("marshal learning", err)
	}
	s.invalidate(l.ID)
	return s.store.PutDocument(ctx, DocumentKind, l.ID, data)
}

// Get loads a learning by id.
func (s *Store) Get(ctx context.Context, id string) (*Learning, error) {
	data, found, err := s.store.GetDocument(ctx, DocumentKind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, meridianerrors.NotFound(meridianerrors.ErrCodeLearningNotFound, "learning", id)
	}

	var l Learning
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
	}
	return &l, nil
}

// List returns every stored learning, in no particular order.
func (s *Store) List(ctx context.Context) ([]Learning, error) {
	docs, err := s.store.ListDocuments(ctx, DocumentKind)
	if err != nil {
		return nil, err
	}

	learnings := make([]Learning, 0, len(docs))
	for _, data := range docs {
		var l Learning
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
		}
		learnings = append(learnings, l)
	}
	return learnings, nil
}

// UpdateConfidence folds one more outcome into a learning's running
// average confidence: new = (old*applications + (1 if success else 0))
// / (applications + 1); applications increments; last_applied is set
// to now.
func (s *Store) UpdateConfidence(ctx context.Context, id string, success bool) (*Learning, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	outcomeValue := 0.0
	if success {
		outcomeValue = 1.0
	}
	l.Confidence = (l.Confidence*float64(l.Applications) + outcomeValue) / float64(l.Applications+1)
	l.Applications++
	now := time.Now()
	l.LastApplied = &now

	if err := s.Put(ctx, *l); err != nil {
		return nil, err
	}
	return l, nil
}

// FindRelevantLearnings scores every stored learning by keyword overlap
// ratio against taskDescription, drops scores below 0.1, and returns
// the top limit by score descending.
func (s *Store) FindRelevantLearnings(ctx context.Context, taskDescription string, limit int) ([]Learning, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		learning Learning
		score    float64
	}

	candidates := make([]scored, 0, len(all))
	for _, l := range all {
		score := s.overlapRatio(l.ID, l.Pattern, taskDescription)
		if score < 0.1 {
			continue
		}
		candidates = append(candidates, scored{learning: l, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]Learning, len(candidates))
	for i, c := range candidates {
		results[i] = c.learning
	}
	return results, nil
}

func (s *Store) overlapRatio(learningID, pattern, task string) float64 {
	key := learningID + "\x00" + task
	if v, ok := s.cache.Get(key); ok {
		return v
	}
	ratio := keywordOverlapRatio(pattern, task)
	s.cache.Add(key, ratio)
	return ratio
}

func (s *Store) invalidate(learningID string) {
	keys := s.cache.Keys()
	for _, k := range keys {
		if len(k) > len(learningID) && k[:len(learningID)] == learningID && k[len(learningID)] == 0 {
			s.cache.Remove(k)
		}
	}
}
