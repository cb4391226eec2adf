// Package episode implements Meridian's write-ahead trace of agent
// actions: a task starts, actions are appended as they happen, and the
// episode is frozen into the document store on completion. Episodes are
// created, mutated via narrow setters, and persisted with an atomic
// write, supporting many concurrent traces in one SQLite-backed store.
package episode

import "time"

// DocumentKind is the storage kind episodes are persisted under.
const DocumentKind = "episode"

// ActionKind enumerates the kinds of actions an agent can record.
type ActionKind string

const (
	ActionCodeSearch ActionKind = "CodeSearch"
	ActionFileRead   ActionKind = "FileRead"
	ActionFileEdit   ActionKind = "FileEdit"
	ActionToolCall   ActionKind = "ToolCall"
	ActionQuery      ActionKind = "Query"
	ActionAnalysis   ActionKind = "Analysis"
	ActionTest       ActionKind = "Test"
	ActionBuild      ActionKind = "Build"
	ActionCommit     ActionKind = "Commit"
)

// Status is the outcome status of a completed episode.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusPartial Status = "Partial"
	StatusFailure Status = "Failure"
)

// patternValue maps a Status to the numeric value extract_patterns uses
// when computing success_rate.
func patternValue(s Status) float64 {
	switch s {
	case StatusSuccess:
		return 1.0
	case StatusPartial:
		return 0.5
	default:
		return 0.0
	}
}

// EpisodeStatus is the lifecycle state of a persisted episode record,
// distinct from the Outcome.Status of a completed one.
type EpisodeStatus string

const (
	RecordStatusInProgress EpisodeStatus = "in_progress"
	RecordStatusCompleted  EpisodeStatus = "completed"
)

// Action is one step an agent took during a task.
type Action struct {
	Kind        ActionKind        `json:"kind"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Context is the situational metadata captured when an episode starts.
type Context struct {
	WorkingDir    string            `json:"working_dir,omitempty"`
	ActiveFiles   []string          `json:"active_files,omitempty"`
	ActiveSymbols []string          `json:"active_symbols,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
}

// Outcome records how a completed episode's task concluded.
type Outcome struct {
	Status         Status   `json:"status"`
	Description    string   `json:"description"`
	FilesModified  []string `json:"files_modified,omitempty"`
	TestsPassed    *bool    `json:"tests_passed,omitempty"`
	BuildSucceeded *bool    `json:"build_succeeded,omitempty"`
	CommitHash     string   `json:"commit_hash,omitempty"`
}

// Episode is one frozen task trace.
type Episode struct {
	ID              string        `json:"id"`
	Status          EpisodeStatus `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	Task            string        `json:"task"`
	Context         Context       `json:"context"`
	Actions         []Action      `json:"actions"`
	Outcome         *Outcome      `json:"outcome,omitempty"`
	Learnings       []string      `json:"learnings,omitempty"`
	DurationSeconds float64       `json:"duration_seconds"`
	Embedding       []float32     `json:"embedding,omitempty"`
}

// Pattern is a derived action-sequence regularity mined by
// extract_patterns. Never authored directly.
type Pattern struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	ActionSequence []ActionKind `json:"action_sequence"`
	Frequency      int          `json:"frequency"`
	SuccessRate    float64      `json:"success_rate"`
	ContextMarkers []string     `json:"context_markers"`
}
