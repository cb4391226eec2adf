// Package consolidate reduces cold episodic memory into Summaries,
// snapshots system state into Checkpoints, and summarizes raw
// conversation transcripts. Checkpoint persistence follows the
// teacher's resumable-indexing checkpoint concept (`IndexCheckpoint`,
// `StateKeyCheckpoint*`), generalized from indexing-stage progress to
// opaque memory-state snapshots.
package consolidate

import "time"

// DocumentKind is the storage kind Summaries are persisted under.
const DocumentKind = "summary"

// CheckpointKind is the storage kind Checkpoints are persisted under.
const CheckpointKind = "checkpoint"

// Summary is a consolidated, immutable distillation of a group of
// episodes or a conversation transcript.
type Summary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	SourceCount int               `json:"source_count"`
	CreatedAt   time.Time         `json:"created_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Checkpoint is a point-in-time restore anchor over system state.
type Checkpoint struct {
	ID                 string            `json:"id"`
	CreatedAt          time.Time         `json:"created_at"`
	EpisodeCount       int               `json:"episode_count"`
	SemanticCount      int               `json:"semantic_count"`
	CoreMemorySnapshot []byte            `json:"core_memory_snapshot"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// CompressEpisodesReport summarizes one compress_episodes run.
type CompressEpisodesReport struct {
	EpisodesProcessed       int     `json:"episodes_processed"`
	EpisodesCompressed      int     `json:"episodes_compressed"`
	SemanticMemoriesCreated int     `json:"semantic_memories_created"`
	SpaceSavedBytes         int64   `json:"space_saved_bytes"`
	CompressionRatio        float64 `json:"compression_ratio"`
}

// Message is one turn of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
