package episode

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	meridianerrors "github.com/meridian-mem/meridian/internal/errors"
	"github.com/meridian-mem/meridian/internal/storage"
)

// Handle is the opaque token returned by StartEpisode. It carries the
// episode identity and guards against reuse after CompleteEpisode
// consumes it.
type Handle struct {
	episodeID string
	startedAt time.Time
	consumed  atomic.Bool
}

// EpisodeID returns the handle's episode id.
func (h *Handle) EpisodeID() string { return h.episodeID }

// StartedAt returns when the episode was started.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

func (h *Handle) markConsumed() bool {
	return h.consumed.CompareAndSwap(false, true)
}

// Recorder is the write-ahead episode store. Every mutation is persisted
// immediately through Store with a load-mutate-atomic-save cycle: a crash
// between calls leaves the last successfully written state on disk rather
// than losing everything held only in memory.
type Recorder struct {
	store *storage.Store
}

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store *storage.Store) *Recorder {
	return &Recorder{store: store}
}

// StartEpisode creates an in-progress record, persists it, and returns
// an opaque handle.
func (r *Recorder) StartEpisode(ctx context.Context, task string, epCtx Context) (*Handle, error) {
	now := time.Now()
	id := uuid.New().String()

	ep := Episode{
		ID:        id,
		Status:    RecordStatusInProgress,
		StartedAt: now,
		Task:      task,
		Context:   epCtx,
	}

	if err := r.persist(ctx, &ep); err != nil {
		return nil, err
	}

	return &Handle{episodeID: id, startedAt: now}, nil
}

// RecordAction appends one action to the handle's episode and persists
// the updated record. A timestamp earlier than the last recorded
// action is clamped to it, preserving the non-decreasing-timestamp
// invariant.
func (r *Recorder) RecordAction(ctx context.Context, h *Handle, action Action) error {
	if h.consumed.Load() {
		return meridianerrors.InvalidState(meridianerrors.ErrCodeEpisodeAlreadyDone,
			"cannot record action on a completed episode handle")
	}

	ep, err := r.loadInProgress(ctx, h.episodeID)
	if err != nil {
		return err
	}

	if n := len(ep.Actions); n > 0 {
		last := ep.Actions[n-1].Timestamp
		if action.Timestamp.Before(last) {
			action.Timestamp = last
		}
	}
	ep.Actions = append(ep.Actions, action)

	return r.persist(ctx, ep)
}

// CompleteEpisode consumes the handle, freezes the episode with
// status=completed, and persists the final record. The handle must not
// be reused after this call.
func (r *Recorder) CompleteEpisode(ctx context.Context, h *Handle, outcome Outcome, learnings []string) (*Episode, error) {
	if !h.markConsumed() {
		return nil, meridianerrors.InvalidState(meridianerrors.ErrCodeEpisodeAlreadyDone,
			"episode handle already completed")
	}

	ep, err := r.loadInProgress(ctx, h.episodeID)
	if err != nil {
		return nil, err
	}

	completedAt := time.Now()
	ep.Status = RecordStatusCompleted
	ep.CompletedAt = &completedAt
	ep.Outcome = &outcome
	ep.Learnings = learnings

	maxActionTime := ep.StartedAt
	for _, a := range ep.Actions {
		if a.Timestamp.After(maxActionTime) {
			maxActionTime = a.Timestamp
		}
	}
	duration := completedAt.Sub(ep.StartedAt).Seconds()
	if minDuration := maxActionTime.Sub(ep.StartedAt).Seconds(); minDuration > duration {
		duration = minDuration
	}
	ep.DurationSeconds = duration

	if err := r.persist(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// GetEpisode loads a persisted episode by id, regardless of status.
func (r *Recorder) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	data, found, err := r.store.GetDocument(ctx, DocumentKind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, meridianerrors.NotFound(meridianerrors.ErrCodeEpisodeNotFound, "episode", id)
	}

	var ep Episode
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
	}
	return &ep, nil
}

// ListEpisodes returns every persisted episode, completed or
// in-progress, in no particular order.
func (r *Recorder) ListEpisodes(ctx context.Context) ([]Episode, error) {
	docs, err := r.store.ListDocuments(ctx, DocumentKind)
	if err != nil {
		return nil, err
	}

	episodes := make([]Episode, 0, len(docs))
	for _, data := range docs {
		var ep Episode
		if err := json.Unmarshal(data, &ep); err != nil {
			return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// ListCompletedEpisodes returns only episodes with status=completed,
// the set consolidation and learning extraction operate on.
func (r *Recorder) ListCompletedEpisodes(ctx context.Context) ([]Episode, error) {
	all, err := r.ListEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	completed := make([]Episode, 0, len(all))
	for _, ep := range all {
		if ep.Status == RecordStatusCompleted {
			completed = append(completed, ep)
		}
	}
	return completed, nil
}

func (r *Recorder) loadInProgress(ctx context.Context, id string) (*Episode, error) {
	data, found, err := r.store.GetDocument(ctx, DocumentKind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, meridianerrors.InvalidState(meridianerrors.ErrCodeEpisodeNotStarted,
			"episode handle refers to no persisted episode")
	}

	var ep Episode
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
	}
	if ep.Status != RecordStatusInProgress {
		return nil, meridianerrors.InvalidState(meridianerrors.ErrCodeEpisodeAlreadyDone,
			"episode is no longer in progress")
	}
	return &ep, nil
}

func (r *Recorder) persist(ctx context.Context, ep *Episode) error {
	data, err := json.Marshal(ep)
	if err != nil {
		return meridianerrors.Internal("marshal episode", err)
	}
	return r.store.PutDocument(ctx, DocumentKind, ep.ID, data)
}
