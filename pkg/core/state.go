package core

import "time"

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunCounts holds per-stage record counts for a pipeline run.
type RunCounts struct {
	Extracted int64
	Processed int64
	Deduped   int64
	Enriched  int64
	Loaded    int64
}

// Run represents a single pipeline execution tracked in the state store.
type Run struct {
	ID          string
	Kind        string
	Source      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Counts      RunCounts
	Error       string
}
