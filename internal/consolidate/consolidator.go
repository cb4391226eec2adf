package consolidate

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	meridianerrors "github.com/meridian-mem/meridian/internal/errors"
	"github.com/meridian-mem/meridian/internal/storage"
)

var conversationOutcomeMarkers = []string{"completed", "fixed", "implemented", "resolved", "done"}

const (
	minTopicLength  = 4
	maxTopics       = 5
	maxOutcomeLines = 3
)

// Consolidator persists Summaries and Checkpoints against a storage.Store,
// the same constructor shape as the episode recorder and learning store.
type Consolidator struct {
	store *storage.Store
}

// NewConsolidator creates a Consolidator backed by store.
func NewConsolidator(store *storage.Store) *Consolidator {
	return &Consolidator{store: store}
}

// PutSummary persists a summary, overwriting any existing record with the
// same id.
func (c *Consolidator) PutSummary(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return meridianerrors.Internal("marshal summary", err)
	}
	return c.store.PutDocument(ctx, DocumentKind, s.ID, data)
}

// ListSummaries returns every stored summary, in no particular order.
func (c *Consolidator) ListSummaries(ctx context.Context) ([]Summary, error) {
	docs, err := c.store.ListDocuments(ctx, DocumentKind)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(docs))
	for _, data := range docs {
		var s Summary
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, meridianerrors.Wrap(meridianerrors.ErrCodeStorageDecode, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// SummarizeConversation distills a conversation transcript into a Summary:
// the most frequent non-stop-word, non-trivial-length words across all
// messages stand in for topics, and each line (not the whole message)
// mentioning a completion marker stands in for an outcome.
func (c *Consolidator) SummarizeConversation(messages []Message, now time.Time) Summary {
	wordCounts := make(map[string]int)
	var wordOrder []string
	var outcomes []string

	for _, m := range messages {
		for _, w := range strings.Fields(strings.ToLower(m.Content)) {
			w = strings.Trim(w, ".,!?;:\"'()")
			if len(w) <= minTopicLength || stopWords[w] {
				continue
			}
			if wordCounts[w] == 0 {
				wordOrder = append(wordOrder, w)
			}
			wordCounts[w]++
		}

		if len(outcomes) >= maxOutcomeLines {
			continue
		}
		for _, line := range strings.Split(m.Content, "\n") {
			if len(outcomes) >= maxOutcomeLines {
				break
			}
			lower := strings.ToLower(line)
			for _, marker := range conversationOutcomeMarkers {
				if strings.Contains(lower, marker) {
					outcomes = append(outcomes, strings.TrimSpace(line))
					break
				}
			}
		}
	}

	topics := topByCount(wordOrder, wordCounts, maxTopics)

	var b strings.Builder
	b.WriteString("Topics: ")
	b.WriteString(strings.Join(topics, ", "))
	b.WriteString("\n")
	for i, o := range outcomes {
		if i >= maxOutcomeLines {
			break
		}
		b.WriteString("Outcome: ")
		b.WriteString(o)
		b.WriteString("\n")
	}

	return Summary{
		ID:          "summary-" + uuid.New().String(),
		Title:       "Conversation summary",
		Content:     b.String(),
		SourceCount: len(messages),
		CreatedAt:   now,
	}
}

// CreateCheckpoint snapshots opaque core-memory state along with episode
// and semantic memory counts at the time of the snapshot.
func (c *Consolidator) CreateCheckpoint(ctx context.Context, episodeCount, semanticCount int, coreMemorySnapshot []byte, metadata map[string]string, now time.Time) (*Checkpoint, error) {
	cp := &Checkpoint{
		ID:                 uuid.New().String(),
		CreatedAt:          now,
		EpisodeCount:       episodeCount,
		SemanticCount:      semanticCount,
		CoreMemorySnapshot: coreMemorySnapshot,
		Metadata:           metadata,
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return nil, meridianerrors.Internal("marshal checkpoint", err)
	}
	if err := c.store.PutDocument(ctx, CheckpointKind, cp.ID, data); err != nil {
		return nil, err
	}
	return cp, nil
}

// RestoreCheckpoint loads a checkpoint by id. The caller is responsible
// for interpreting CoreMemorySnapshot; consolidate treats it as opaque.
func (c *Consolidator) RestoreCheckpoint(ctx context.Context, id string) (*Checkpoint, error) {
	data, found, err := c.store.GetDocument(ctx, CheckpointKind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, meridianerrors.NotFound(meridianerrors.ErrCodeCheckpointNotFound, "checkpoint", id)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, meridianerrors.Wrap(meridianerrors.ErrCodeCheckpointCorrupt, err)
	}
	return &cp, nil
}

// ListCheckpoints returns every stored checkpoint, newest first.
func (c *Consolidator) ListCheckpoints(ctx context.Context) ([]Checkpoint, error) {
	docs, err := c.store.ListDocuments(ctx, CheckpointKind)
	if err != nil {
		return nil, err
	}

	checkpoints := make([]Checkpoint, 0, len(docs))
	for _, data := range docs {
		var cp Checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			return nil, meridianerrors.Wrap(meridianerrors.ErrCodeCheckpointCorrupt, err)
		}
		checkpoints = append(checkpoints, cp)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// DeleteCheckpoint removes a checkpoint by id.
func (c *Consolidator) DeleteCheckpoint(ctx context.Context, id string) error {
	return c.store.DeleteDocument(ctx, CheckpointKind, id)
}
